// ABOUTME: Tool configuration with YAML file and environment layering
// ABOUTME: Validation reports every problem at once
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
)

// Config is the full tool configuration.
type Config struct {
	// Backend forces a backend by name. Empty means discovery.
	Backend   string  `yaml:"backend"`
	LatencyMs int     `yaml:"latency_ms"`
	Volume    float64 `yaml:"volume"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tone    ToneConfig    `yaml:"tone"`
}

// LogConfig selects log verbosity and destination.
type LogConfig struct {
	Level string `yaml:"level"`
	// File receives logs. The interactive player always logs to a file
	// because the terminal belongs to the UI.
	File string `yaml:"file"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// ToneConfig shapes the test tone played when no file is given.
type ToneConfig struct {
	Format    string  `yaml:"format"`
	Rate      int     `yaml:"rate"`
	Channels  int     `yaml:"channels"`
	Frequency float64 `yaml:"frequency"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LatencyMs: 50,
		Volume:    1,
		Log:       LogConfig{Level: "info", File: "cubeb-play.log"},
		Tone: ToneConfig{
			Format:    audio.FormatS16LE.String(),
			Rate:      48000,
			Channels:  2,
			Frequency: 440,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults. Unknown keys are
// errors. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate returns every problem in cfg joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LatencyMs <= 0 || cfg.LatencyMs > 2000 {
		errs = append(errs, fmt.Errorf("latency_ms %d is out of range (0, 2000]", cfg.LatencyMs))
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume %.2f is out of range [0, 1]", cfg.Volume))
	}
	if !validLevel(cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: %s", cfg.Log.Level, strings.Join(validLevels, ", ")))
	}

	if _, err := audio.ParseSampleFormat(cfg.Tone.Format); err != nil {
		errs = append(errs, fmt.Errorf("tone.format: %w", err))
	}
	if cfg.Tone.Rate < 1000 || cfg.Tone.Rate > 384000 {
		errs = append(errs, fmt.Errorf("tone.rate %d is out of range [1000, 384000]", cfg.Tone.Rate))
	}
	if cfg.Tone.Channels < 1 || cfg.Tone.Channels > 32 {
		errs = append(errs, fmt.Errorf("tone.channels %d is out of range [1, 32]", cfg.Tone.Channels))
	}
	if cfg.Tone.Frequency <= 0 || cfg.Tone.Frequency >= float64(cfg.Tone.Rate)/2 {
		errs = append(errs, fmt.Errorf("tone.frequency %.1f must be between 0 and the Nyquist frequency", cfg.Tone.Frequency))
	}

	return errors.Join(errs...)
}

func validLevel(level string) bool {
	for _, l := range validLevels {
		if level == l {
			return true
		}
	}
	return false
}

// ApplyEnv overrides cfg from CUBEB_* environment variables. Malformed
// numbers are reported rather than ignored.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error

	if v, ok := lookup("CUBEB_BACKEND"); ok {
		cfg.Backend = v
	}
	if v, ok := lookup("CUBEB_LATENCY_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CUBEB_LATENCY_MS: %w", err))
		} else {
			cfg.LatencyMs = n
		}
	}
	if v, ok := lookup("CUBEB_VOLUME"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("CUBEB_VOLUME: %w", err))
		} else {
			cfg.Volume = f
		}
	}
	if v, ok := lookup("CUBEB_LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}

	return errors.Join(errs...)
}

// ToneParams returns the stream parameters of the test tone.
func (c *Config) ToneParams() (audio.StreamParams, error) {
	format, err := audio.ParseSampleFormat(c.Tone.Format)
	if err != nil {
		return audio.StreamParams{}, err
	}
	return audio.StreamParams{Format: format, Rate: c.Tone.Rate, Channels: c.Tone.Channels}, nil
}

// LatencyFrames converts LatencyMs to frames at rate.
func (c *Config) LatencyFrames(rate int) int {
	return max(rate*c.LatencyMs/1000, 1)
}
