// ABOUTME: Acceptance probe for a cubeb backend
// ABOUTME: Plays silence for a second and checks position, stop, and callback quiescence
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DingusDevOrg/cubeb/internal/logging"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/all"
)

func main() {
	var opts options
	var level string

	cmd := &cobra.Command{
		Use:          "cubeb-probe",
		Short:        "Run the end-to-end playback check against a backend",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := logging.New(logging.Options{Level: level, Console: true})
			if err != nil {
				return err
			}
			defer closeLog()

			rep, err := probe(opts, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PASS backend=%s position=%d latency=%d callbacks=%d\n",
				rep.backend, rep.position, rep.latency, rep.callbacks)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.backend, "backend", "b", "", "Backend to probe (default: first available)")
	f.DurationVar(&opts.play, "duration", 1100*time.Millisecond, "How long to play before checking the position")
	f.Uint64Var(&opts.minFrames, "min-frames", 40000, "Minimum position expected after the play duration")
	f.StringVar(&level, "log-level", "warn", "Log level")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "FAIL:", err)
		os.Exit(1)
	}
}
