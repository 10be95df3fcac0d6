package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"booru-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// opts holds the flags of the root command.
var opts runOptions

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "booru-sync [check|post|version] [store]",
	Short: "Find and re-fetch missing post versions",
	Long: `booru-sync scans a local post_versions mirror for lost records.

Modes:
  check    print every missing "post_id,version" pair
  post     re-fetch every missing version individually
  version  re-fetch every missing id range with packed requests

Missing arguments are asked for interactively. Credentials are read from
DANBOORU_LOGIN and DANBOORU_API_KEY, usually through a .env file.

Examples:
  # Report only
  booru-sync check posts.db > missing.csv

  # Fill id gaps
  booru-sync version posts.db`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Console format with the development config, the same output a user sees for a CLI tool
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.Flags().StringVar(&opts.ConfigDir, "config-dir", ".", "Directory holding the .env file")
	RootCmd.Flags().BoolVar(&opts.NoProgress, "no-progress", false, "Disable the progress bar")
	RootCmd.Flags().StringVar(&opts.StalePolicy, "stale-policy", "", "Override sync.stale_policy (advance, ignore)")
	RootCmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Override metrics.textfile")
}
