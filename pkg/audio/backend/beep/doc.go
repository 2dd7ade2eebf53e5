// ABOUTME: Beep speaker playback driver
// ABOUTME: Streams are paused beep controls mixed on the shared speaker
// Package beep drives playback through the github.com/gopxl/beep speaker.
//
// The speaker is opened once per process at the first stream's rate. Every
// stream becomes a beep.Ctrl on a shared beep.Mixer, so streams must agree
// on the rate and carry one or two channels.
package beep
