// ABOUTME: Audio fundamentals package providing stream parameters and sample helpers
// ABOUTME: Defines SampleFormat, StreamParams and per-format encode/decode utilities
// Package audio provides the value types shared by the engine and every backend.
//
// This package defines:
//   - SampleFormat: 8-bit unsigned PCM, 16-bit little-endian PCM, 32-bit little-endian float
//   - StreamParams: format, sample rate and channel count of a stream
//
// It also provides utilities for working on interleaved sample buffers in any
// supported format:
//   - Sample/PutSample: decode and encode one sample as a float64 in [-1, 1]
//   - Silence: fill a buffer with the format's zero level
//   - ApplyGain: software volume
//
// Example:
//
//	params := audio.StreamParams{
//	    Format:   audio.FormatS16LE,
//	    Rate:     48000,
//	    Channels: 2,
//	}
//	buf := make([]byte, params.FramesToBytes(480))
//	audio.Silence(params.Format, buf)
package audio
