// ABOUTME: Sine tone generator
// ABOUTME: Endless test signal in any sample format
package source

import (
	"math"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
)

// Tone generates a sine wave on every channel.
type Tone struct {
	params    audio.StreamParams
	frequency float64
	amplitude float64
	pos       uint64
}

// NewTone creates a tone at half amplitude.
func NewTone(params audio.StreamParams, frequency float64) *Tone {
	return &Tone{params: params, frequency: frequency, amplitude: 0.5}
}

func (t *Tone) Params() audio.StreamParams { return t.params }

func (t *Tone) Read(p []byte) (int, error) {
	frames := t.params.BytesToFrames(len(p))
	ch := t.params.Channels
	for i := 0; i < frames; i++ {
		x := float64(t.pos+uint64(i)) / float64(t.params.Rate)
		v := t.amplitude * math.Sin(2*math.Pi*t.frequency*x)
		for c := 0; c < ch; c++ {
			audio.PutSample(t.params.Format, p, i*ch+c, v)
		}
	}
	t.pos += uint64(frames)
	return t.params.FramesToBytes(frames), nil
}

func (t *Tone) Metadata() Metadata {
	return Metadata{Title: "Test Tone", Artist: "cubeb-play"}
}

func (t *Tone) Close() error { return nil }
