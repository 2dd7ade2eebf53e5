//go:build cgo && !nolibopusfile

// ABOUTME: Ogg Opus file source
// ABOUTME: Decodes with libopusfile through hraban/opus at 48 kHz
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/hraban/opus.v2"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
)

// Opus reads an Ogg Opus file.
type Opus struct {
	file   *os.File
	stream *opus.Stream
	params audio.StreamParams
	title  string
	pcm    []int16
}

// OpenOpus opens and starts decoding path.
func OpenOpus(path string) (*Opus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}
	channels, err := opusChannels(f)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}
	stream, err := opus.NewStream(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}
	return &Opus{
		file:   f,
		stream: stream,
		params: audio.StreamParams{Format: audio.FormatS16LE, Rate: opusRate, Channels: channels},
		title:  titleOf(path),
	}, nil
}

func (s *Opus) Params() audio.StreamParams { return s.params }

func (s *Opus) Read(p []byte) (int, error) {
	ch := s.params.Channels
	want := s.params.BytesToFrames(len(p)) * ch
	if want == 0 {
		return 0, nil
	}
	if cap(s.pcm) < want {
		s.pcm = make([]int16, want)
	}
	pcm := s.pcm[:want]

	written := 0
	for written < len(pcm) {
		frames, err := s.stream.Read(pcm[written:])
		written += frames * ch
		if errors.Is(err, io.EOF) {
			if written == 0 {
				return 0, io.EOF
			}
			break
		}
		if err != nil {
			return 0, fmt.Errorf("decode Opus packet: %w", err)
		}
		if frames == 0 {
			break
		}
	}

	for i, v := range pcm[:written] {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(v))
	}
	return written * 2, nil
}

func (s *Opus) Metadata() Metadata {
	return Metadata{Title: s.title}
}

func (s *Opus) Close() error {
	err := s.stream.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
