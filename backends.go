// ABOUTME: The backends subcommand
// ABOUTME: Lists registered backends by priority and probes whether each initializes
package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DingusDevOrg/cubeb/pkg/audio/backend"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List audio backends in discovery order",
	RunE: func(cmd *cobra.Command, args []string) error {
		listBackends(cmd.OutOrStdout(), backend.Factories())
		return nil
	},
}

func listBackends(w io.Writer, factories []backend.Factory) {
	fmt.Fprintf(w, "%-10s %8s  %s\n", "BACKEND", "PRIORITY", "STATUS")
	for _, f := range factories {
		status := "ok"
		b, err := f.Init("cubeb-play", zap.NewNop())
		if err != nil {
			status = err.Error()
		} else {
			_ = b.Close()
		}
		fmt.Fprintf(w, "%-10s %8d  %s\n", f.Name, f.Priority, status)
	}
}
