// ABOUTME: Miniaudio playback driver via malgo
// ABOUTME: Needs cgo; without it the driver registers as unavailable
// Package malgo drives playback through miniaudio using
// github.com/gen2brain/malgo. Each stream is its own miniaudio device whose
// data callback pulls from the engine's ring feed.
package malgo
