// ABOUTME: zap logger construction for the cubeb tools
// ABOUTME: Console output, a log file, or both, at a named level
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where logs go.
type Options struct {
	Level string
	// File is appended to when set.
	File string
	// Console also writes to stderr.
	Console bool
}

// New builds a logger. The returned close function flushes the logger and
// closes the log file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var cores []zapcore.Core
	var file *os.File
	if opts.File != "" {
		file, err = os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file: %w", err)
		}
		cores = append(cores, newCore(zapcore.NewJSONEncoder(encoderConfig()), file, level))
	}
	if opts.Console {
		cores = append(cores, newCore(zapcore.NewConsoleEncoder(encoderConfig()), os.Stderr, level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeFn := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}

func newCore(enc zapcore.Encoder, w io.Writer, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
