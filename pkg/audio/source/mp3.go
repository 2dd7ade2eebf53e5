// ABOUTME: MP3 file source
// ABOUTME: Decodes with go-mp3, which always yields 16-bit stereo
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3 reads an MP3 file.
type MP3 struct {
	file    *os.File
	decoder *mp3.Decoder
	params  audio.StreamParams
	title   string
}

// OpenMP3 opens and starts decoding path.
func OpenMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	return &MP3{
		file:    f,
		decoder: decoder,
		params:  audio.StreamParams{Format: audio.FormatS16LE, Rate: decoder.SampleRate(), Channels: 2},
		title:   titleOf(path),
	}, nil
}

func (s *MP3) Params() audio.StreamParams { return s.params }

// Length returns the total number of frames.
func (s *MP3) Length() int {
	return s.params.BytesToFrames(int(s.decoder.Length()))
}

func (s *MP3) Read(p []byte) (int, error) {
	fs := s.params.FrameSize()
	p = p[:len(p)-len(p)%fs]
	n, err := io.ReadFull(s.decoder, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		// A truncated final frame is dropped.
		return n - n%fs, io.EOF
	}
	return n, err
}

func (s *MP3) Metadata() Metadata {
	return Metadata{Title: s.title, Artist: "Unknown Artist", Album: "Unknown Album"}
}

func (s *MP3) Close() error {
	return s.file.Close()
}
