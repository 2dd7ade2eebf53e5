// ABOUTME: Player discovery and per-format command lines
// ABOUTME: Searches PATH in the order pacat > pw-cat > aplay > sox > ffplay
package pipe

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
)

// ErrNoPlayer is returned when none of the known players is on PATH.
var ErrNoPlayer = errors.New("pipe: no command-line audio player found")

// Player is an external program that plays raw PCM from stdin.
type Player struct {
	Name string
	Path string
	args func(p audio.StreamParams, latency time.Duration) ([]string, error)
}

// Args returns the command line for params.
func (pl Player) Args(p audio.StreamParams, latency time.Duration) ([]string, error) {
	return pl.args(p, latency)
}

type candidate struct {
	name string
	bin  string
	args func(p audio.StreamParams, latency time.Duration) ([]string, error)
}

var candidates = []candidate{
	{"pacat", "pacat", pacatArgs},
	{"pw-cat", "pw-cat", pwcatArgs},
	{"aplay", "aplay", aplayArgs},
	{"sox", "play", soxArgs},
	{"ffplay", "ffplay", ffplayArgs},
}

// Detect returns the first known player found on PATH.
func Detect() (Player, error) {
	for _, c := range candidates {
		if path, err := exec.LookPath(c.bin); err == nil {
			return Player{Name: c.name, Path: path, args: c.args}, nil
		}
	}
	return Player{}, ErrNoPlayer
}

// Lookup returns the named player if it is on PATH.
func Lookup(name string) (Player, error) {
	for _, c := range candidates {
		if c.name != name {
			continue
		}
		path, err := exec.LookPath(c.bin)
		if err != nil {
			return Player{}, fmt.Errorf("%w: %s: %v", backend.ErrUnavailable, name, err)
		}
		return Player{Name: c.name, Path: path, args: c.args}, nil
	}
	return Player{}, fmt.Errorf("pipe: unknown player %q", name)
}

func unsupported(player string, f audio.SampleFormat) error {
	return fmt.Errorf("%w: %s cannot play %s", backend.ErrUnsupportedFormat, player, f)
}

func ms(d time.Duration) string {
	return strconv.FormatInt(max(d.Milliseconds(), 1), 10)
}

func pacatArgs(p audio.StreamParams, latency time.Duration) ([]string, error) {
	formats := map[audio.SampleFormat]string{
		audio.FormatU8:        "u8",
		audio.FormatS16LE:     "s16le",
		audio.FormatFloat32LE: "float32le",
	}
	f, ok := formats[p.Format]
	if !ok {
		return nil, unsupported("pacat", p.Format)
	}
	return []string{
		"--raw",
		"--playback",
		"--format=" + f,
		"--rate=" + strconv.Itoa(p.Rate),
		"--channels=" + strconv.Itoa(p.Channels),
		"--latency-msec=" + ms(latency),
	}, nil
}

func pwcatArgs(p audio.StreamParams, latency time.Duration) ([]string, error) {
	formats := map[audio.SampleFormat]string{
		audio.FormatU8:        "u8",
		audio.FormatS16LE:     "s16",
		audio.FormatFloat32LE: "f32",
	}
	f, ok := formats[p.Format]
	if !ok {
		return nil, unsupported("pw-cat", p.Format)
	}
	return []string{
		"--playback",
		"--format=" + f,
		"--rate=" + strconv.Itoa(p.Rate),
		"--channels=" + strconv.Itoa(p.Channels),
		"--latency=" + ms(latency) + "ms",
		"-",
	}, nil
}

func aplayArgs(p audio.StreamParams, latency time.Duration) ([]string, error) {
	formats := map[audio.SampleFormat]string{
		audio.FormatU8:        "U8",
		audio.FormatS16LE:     "S16_LE",
		audio.FormatFloat32LE: "FLOAT_LE",
	}
	f, ok := formats[p.Format]
	if !ok {
		return nil, unsupported("aplay", p.Format)
	}
	return []string{
		"-t", "raw",
		"-f", f,
		"-r", strconv.Itoa(p.Rate),
		"-c", strconv.Itoa(p.Channels),
		"-B", strconv.FormatInt(latency.Microseconds(), 10),
		"-q",
	}, nil
}

func soxArgs(p audio.StreamParams, _ time.Duration) ([]string, error) {
	var enc []string
	switch p.Format {
	case audio.FormatU8:
		enc = []string{"-e", "unsigned", "-b", "8"}
	case audio.FormatS16LE:
		enc = []string{"-e", "signed", "-b", "16", "-L"}
	case audio.FormatFloat32LE:
		enc = []string{"-e", "floating-point", "-b", "32", "-L"}
	default:
		return nil, unsupported("sox", p.Format)
	}
	args := append([]string{"-t", "raw"}, enc...)
	return append(args,
		"-c", strconv.Itoa(p.Channels),
		"-r", strconv.Itoa(p.Rate),
		"-",
		"-d",
		"-q",
	), nil
}

func ffplayArgs(p audio.StreamParams, _ time.Duration) ([]string, error) {
	formats := map[audio.SampleFormat]string{
		audio.FormatU8:        "u8",
		audio.FormatS16LE:     "s16le",
		audio.FormatFloat32LE: "f32le",
	}
	f, ok := formats[p.Format]
	if !ok {
		return nil, unsupported("ffplay", p.Format)
	}
	return []string{
		"-nodisp",
		"-autoexit",
		"-f", f,
		"-ac", strconv.Itoa(p.Channels),
		"-ar", strconv.Itoa(p.Rate),
		"-probesize", "32",
		"-analyzeduration", "0",
		"-i", "pipe:0",
		"-loglevel", "quiet",
	}, nil
}
