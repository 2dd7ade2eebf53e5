// ABOUTME: External player process playback driver
// ABOUTME: Streams raw PCM to pacat, pw-cat, aplay, sox or ffplay over stdin
// Package pipe plays audio by spawning a command-line player per stream and
// writing raw PCM to its standard input. The pipe's own back-pressure paces
// the device side.
package pipe
