// ABOUTME: Entry point for the cubeb-play audio player
// ABOUTME: Defines the cobra command tree and shared flags
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DingusDevOrg/cubeb/internal/version"
	_ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/all"
)

var rootCmd = &cobra.Command{
	Use:   "cubeb-play",
	Short: "Play audio through cubeb",
	Long: `cubeb-play plays MP3 and FLAC files, or a test tone, through the first
available cubeb backend.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(backendsCmd)

	registerGlobalFlags(rootCmd)
}

func registerGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringP("config", "c", "", "Config file path")
	f.StringP("backend", "b", "", "Backend name (default: first available)")
	f.String("log-level", "", "Log level: debug, info, warn, error")
	f.String("log-file", "", "Log file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
