// ABOUTME: Source interface and file dispatch
// ABOUTME: Opens MP3, FLAC and Opus by extension; an empty path yields a test tone
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
)

// Source produces interleaved PCM frames.
type Source interface {
	// Params describes the frames Read produces.
	Params() audio.StreamParams

	// Read fills p with whole frames and returns the byte count. It returns
	// io.EOF once the source is exhausted.
	Read(p []byte) (int, error)

	Metadata() Metadata
	Close() error
}

// Metadata describes what is playing.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Open returns a source for path, chosen by file extension. An empty path
// returns an endless 440 Hz stereo tone at 48 kHz.
func Open(path string) (Source, error) {
	if path == "" {
		return NewTone(audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 2}, 440), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return OpenMP3(path)
	case ".flac":
		return OpenFLAC(path)
	case ".opus", ".ogg":
		return OpenOpus(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .opus)", ext)
	}
}

func titleOf(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// take limits a source to a number of frames.
type take struct {
	Source
	left int
}

// Take returns a source that ends after frames frames of src.
func Take(src Source, frames int) Source {
	return &take{Source: src, left: frames}
}

func (t *take) Read(p []byte) (int, error) {
	params := t.Params()
	if t.left <= 0 {
		return 0, io.EOF
	}
	if limit := params.FramesToBytes(t.left); len(p) > limit {
		p = p[:limit]
	}
	n, err := t.Source.Read(p)
	t.left -= params.BytesToFrames(n)
	return n, err
}
