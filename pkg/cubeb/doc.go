// ABOUTME: Callback-driven audio playback API
// ABOUTME: Provides Context and Stream with a real-time data/state callback contract
// Package cubeb is a callback-based audio API for portable playback.
//
// An application initializes a Context, which picks a backend driver, then
// creates Streams from it. A started Stream owns a pump goroutine that pulls
// frames from the application's data callback and hands them to the driver at
// the pace the device consumes them. Lifecycle transitions are reported
// through the state callback from a separate notifier goroutine.
//
//	ctx, err := cubeb.Init("Example Application")
//	params := audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 2}
//	stm, err := ctx.StreamInit("Example Stream 1", params, params.Rate/4,
//	    dataCB, stateCB, nil)
//	err = stm.Start()
//	for {
//	    pos, _ := stm.Position()
//	    fmt.Printf("position=%d\n", pos)
//	    time.Sleep(time.Second)
//	}
//	err = stm.Stop()
//	stm.Destroy()
//	ctx.Destroy()
//
// The data callback runs on the pump and must write exactly the requested
// number of frames except at end of stream, when it returns fewer to start a
// drain. Returning an error halts the stream. It must not block.
//
//	func dataCB(s *cubeb.Stream, user any, buf []byte, frames int) (int, error) {
//	    audio.Silence(s.Params().Format, buf)
//	    return frames, nil
//	}
//
//	func stateCB(s *cubeb.Stream, user any, state cubeb.State) error {
//	    log.Printf("state=%s", state)
//	    return nil
//	}
//
// Only the null driver is linked by default. Import
// github.com/DingusDevOrg/cubeb/pkg/audio/backend/all to link every driver.
package cubeb
