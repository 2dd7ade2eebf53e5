// ABOUTME: Oto playback driver
// ABOUTME: Streams are oto players reading from the engine's ring feed
// Package oto drives playback through github.com/ebitengine/oto/v3.
//
// Oto allows a single device context per process, fixed at creation to one
// rate, channel count and sample format. The first stream creates it; later
// streams must use the same parameters. Streams are individual oto players,
// which oto mixes in software.
package oto
