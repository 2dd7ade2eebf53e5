// ABOUTME: PCM sources for playback tools
// ABOUTME: Tone generator, MP3 and FLAC files, and a decode-ahead feeder
// Package source produces interleaved PCM for a stream.
//
// A Source decodes in its own format and rate; the stream is created with
// Source.Params since the engine does no conversion. Feeder moves decoding
// off the real-time path: it decodes ahead into a ring on its own goroutine
// and exposes a data callback that only copies.
//
//	src, err := source.Open("song.flac")
//	feeder := source.NewFeeder(src, src.Params().Rate/2)
//	go feeder.Run(ctx)
//	<-feeder.Ready()
//	stm, err := cubeCtx.StreamInit("song", src.Params(), latency,
//	    feeder.DataCallback, stateCB, nil)
package source
