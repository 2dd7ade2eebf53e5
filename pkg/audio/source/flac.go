// ABOUTME: FLAC file source
// ABOUTME: Decodes with mewkiz/flac into 16-bit or float frames
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLAC reads a FLAC file. 16-bit files play as S16LE, other depths as
// float.
type FLAC struct {
	file   *os.File
	stream *flac.Stream
	params audio.StreamParams
	bits   int
	title  string

	// Decoded frames of the current FLAC block not yet returned.
	pending []byte
}

// OpenFLAC opens and starts decoding path.
func OpenFLAC(path string) (*FLAC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	bits := int(info.BitsPerSample)
	format := audio.FormatFloat32LE
	if bits == 16 {
		format = audio.FormatS16LE
	}
	return &FLAC{
		file:   f,
		stream: stream,
		params: audio.StreamParams{Format: format, Rate: int(info.SampleRate), Channels: int(info.NChannels)},
		bits:   bits,
		title:  titleOf(path),
	}, nil
}

func (s *FLAC) Params() audio.StreamParams { return s.params }

func (s *FLAC) Read(p []byte) (int, error) {
	p = p[:len(p)-len(p)%s.params.FrameSize()]
	n := 0
	for n < len(p) {
		if len(s.pending) == 0 {
			frame, err := s.stream.ParseNext()
			if err == io.EOF {
				if n == 0 {
					return 0, io.EOF
				}
				return n, nil
			}
			if err != nil {
				return n, fmt.Errorf("decode FLAC frame: %w", err)
			}
			blocks := make([][]int32, len(frame.Subframes))
			for ch, sub := range frame.Subframes {
				blocks[ch] = sub.Samples
			}
			s.pending = interleave(s.params, s.bits, blocks, int(frame.BlockSize))
		}
		c := copy(p[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	return n, nil
}

// interleave converts per-channel FLAC samples of the given bit depth into
// interleaved frames of params.Format.
func interleave(params audio.StreamParams, bits int, channels [][]int32, frames int) []byte {
	out := make([]byte, params.FramesToBytes(frames))
	scale := float64(int64(1) << (bits - 1))
	for i := 0; i < frames; i++ {
		for ch := 0; ch < params.Channels; ch++ {
			v := channels[ch][i]
			idx := i*params.Channels + ch
			if params.Format == audio.FormatS16LE {
				out[2*idx] = byte(v)
				out[2*idx+1] = byte(v >> 8)
				continue
			}
			audio.PutSample(params.Format, out, idx, float64(v)/scale)
		}
	}
	return out
}

func (s *FLAC) Metadata() Metadata {
	return Metadata{Title: s.title, Artist: "Unknown Artist", Album: "Unknown Album"}
}

func (s *FLAC) Close() error {
	return s.stream.Close()
}
