package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/logger"
	"github.com/jacquesdev/jacques/pkg/watcher"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Auto-archive sessions as they finish",
	Long: `Watches ~/.claude/projects/ and archives each session transcript once
it has been quiet for the settle delay. Runs until interrupted.

The archive_filter setting controls what gets archived: "all" archives
everything, "substantial" skips trivial sessions, "none" disables
auto-archiving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}

		w, err := watcher.New(store, settings, watchSettle)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching for finished sessions (settle delay %s). Ctrl-C to stop.\n", watchSettle)
		logger.Info("Watcher started (settle=%s, filter=%s)", watchSettle, settings.ArchiveFilter)

		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Println("\nStopped.")
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettleDelay,
		"how long a transcript must be quiet before archiving")
	rootCmd.AddCommand(watchCmd)
}
