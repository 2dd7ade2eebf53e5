// ABOUTME: The play subcommand
// ABOUTME: Loads config, builds logging and metrics, and runs a player session
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DingusDevOrg/cubeb/internal/app"
	"github.com/DingusDevOrg/cubeb/internal/config"
	"github.com/DingusDevOrg/cubeb/internal/logging"
	"github.com/DingusDevOrg/cubeb/internal/metricsrv"
	"github.com/DingusDevOrg/cubeb/internal/ui"
	"github.com/DingusDevOrg/cubeb/internal/version"
	"github.com/DingusDevOrg/cubeb/pkg/audio/source"
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a file, or a test tone when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		noTUI, _ := cmd.Flags().GetBool("no-tui")
		return runPlay(cmd.Context(), cfg, path, !noTUI)
	},
}

func init() {
	registerPlayFlags(playCmd)
}

func registerPlayFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("latency-ms", 0, "Stream latency in milliseconds")
	f.Float64("volume", 0, "Initial volume between 0 and 1")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	f.String("format", "", "Tone sample format: u8, s16le, f32le")
	f.Int("rate", 0, "Tone sample rate")
	f.Int("channels", 0, "Tone channel count")
	f.Bool("no-tui", false, "Disable TUI, stream logs to the terminal instead")
}

// loadConfig layers defaults, the config file, the environment, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.Log.File, _ = flags.GetString("log-file")
	}
	if flags.Changed("latency-ms") {
		cfg.LatencyMs, _ = flags.GetInt("latency-ms")
	}
	if flags.Changed("volume") {
		cfg.Volume, _ = flags.GetFloat64("volume")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("format") {
		cfg.Tone.Format, _ = flags.GetString("format")
	}
	if flags.Changed("rate") {
		cfg.Tone.Rate, _ = flags.GetInt("rate")
	}
	if flags.Changed("channels") {
		cfg.Tone.Channels, _ = flags.GetInt("channels")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSource(cfg *config.Config, path string) (source.Source, error) {
	if path != "" {
		return source.Open(path)
	}
	params, err := cfg.ToneParams()
	if err != nil {
		return nil, err
	}
	return source.NewTone(params, cfg.Tone.Frequency), nil
}

func runPlay(parent context.Context, cfg *config.Config, path string, useTUI bool) error {
	if parent == nil {
		parent = context.Background()
	}

	// The TUI owns the terminal, so logs only go to the file.
	log, closeLog, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: !useTUI,
	})
	if err != nil {
		return err
	}
	defer closeLog()
	log.Info("starting", zap.String("version", version.String()))

	src, err := openSource(cfg, path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var mp metric.MeterProvider
	if cfg.Metrics.Addr != "" {
		provider, err := metricsrv.NewProvider()
		if err != nil {
			src.Close()
			return err
		}
		defer provider.Shutdown(context.Background())
		mp = provider
		g.Go(func() error { return provider.Serve(gctx, cfg.Metrics.Addr, log) })
	}

	var prog *tea.Program
	var controls *ui.Controls
	status := func(ui.StatusMsg) {}
	if useTUI {
		controls = ui.NewControls()
		prog = ui.Run(controls)
		status = func(msg ui.StatusMsg) { prog.Send(msg) }
	}

	player, err := app.New(app.Config{
		Name:          "cubeb-play",
		Backend:       cfg.Backend,
		LatencyMs:     cfg.LatencyMs,
		Volume:        cfg.Volume,
		Source:        src,
		Logger:        log,
		MeterProvider: mp,
		Status:        status,
		Controls:      controls,
	})
	if err != nil {
		src.Close()
		cancel()
		_ = g.Wait()
		return err
	}
	defer player.Close()

	if prog != nil {
		g.Go(func() error {
			_, err := prog.Run()
			cancel()
			return err
		})
	}

	g.Go(func() error {
		defer cancel()
		if prog != nil {
			defer prog.Quit()
		}
		return player.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("playback failed", zap.Error(err))
		return err
	}
	log.Info("player stopped")
	return nil
}
