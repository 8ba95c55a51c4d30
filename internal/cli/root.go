// Package cli implements the nextrend command line: the terminal studio and
// its local source cache.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jimdaga/nextrend/internal/crypto"
	"github.com/jimdaga/nextrend/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagCache    string
	flagStub     bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "nextrend",
	Short: "Mortgage marketing content studio",
	Long:  "nextrend turns market commentary, trending housing news and mortgage terms into ready-to-post content in your own voice.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logging.NewLoggerTo(os.Stderr, flagLogLevel, "text"))
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "path to the local cache database")
	rootCmd.PersistentFlags().BoolVar(&flagStub, "stub", false, "use canned completions instead of the API")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(voiceCmd)
	rootCmd.AddCommand(sourcesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nextrend %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a new ENCRYPTION_KEY for the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
