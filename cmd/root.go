package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacquesdev/jacques/pkg/archive"
	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "jacques",
	Short: "Archive and search your Claude Code sessions",
	Long: `Jacques archives Claude Code session transcripts into a local,
searchable store: compact manifests, full conversation bodies, deduplicated
plan documents and a keyword index.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logger.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging unavailable: %v\n", err)
		}
		if verbose {
			logger.Get().SetLevel(logger.DEBUG)
			logger.Get().SetAlsoStderr(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

func Execute() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore builds the archive store from user settings and the
// (env-overridable) archive root
func openStore() (*archive.Store, error) {
	root, err := config.GetArchiveRoot()
	if err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	return archive.New(root, settings), nil
}
