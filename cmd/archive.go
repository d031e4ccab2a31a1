package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacquesdev/jacques/pkg/archive"
	"github.com/jacquesdev/jacques/pkg/discovery"
	"github.com/jacquesdev/jacques/pkg/logger"
)

var (
	archiveAll   bool
	archiveForce bool
	archiveLabel string
)

var archiveCmd = &cobra.Command{
	Use:   "archive [session-id]",
	Short: "Archive one session, or every session with --all",
	Long: `Archives a Claude Code session transcript: extracts a manifest,
saves the full conversation, deduplicates any plans it contains and
updates the search index.

With --all, scans ~/.claude/projects/ and archives every session found,
reporting per-item failures without aborting the batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		if archiveAll {
			return runBulkArchive(store)
		}

		if len(args) != 1 {
			return fmt.Errorf("expected a session id (or --all)")
		}

		info, err := discovery.FindBySessionID(args[0])
		if err != nil {
			return err
		}

		result, err := store.Archive(info.TranscriptPath, info.ProjectPath, archive.ArchiveOptions{
			Force:     archiveForce,
			UserLabel: archiveLabel,
		})
		if err != nil {
			return err
		}
		if result.Skipped {
			fmt.Printf("Session %s already archived (use --force to re-archive).\n", result.ManifestID)
			return nil
		}

		fmt.Printf("Archived %s\n", result.Title)
		fmt.Printf("  session: %s\n", result.ManifestID)
		fmt.Printf("  saved:   %s\n", result.ConversationPath)
		if result.PlanCount > 0 {
			fmt.Printf("  plans:   %d\n", result.PlanCount)
		}
		return nil
	},
}

func runBulkArchive(store *archive.Store) error {
	fmt.Println("Scanning ~/.claude/projects...")
	transcripts, err := discovery.ScanAll()
	if err != nil {
		return fmt.Errorf("failed to scan for sessions: %w", err)
	}
	if len(transcripts) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	fmt.Printf("Found %d session(s)\n\n", len(transcripts))

	logger.Info("Starting bulk archive of %d sessions (force=%v)", len(transcripts), archiveForce)

	result := store.ArchiveAll(transcripts, archive.BulkOptions{
		Force: archiveForce,
		Progress: func(done, total int, info discovery.TranscriptInfo, err error) {
			status := "ok"
			if err != nil {
				status = "FAILED"
			}
			fmt.Printf("\r[%d/%d] %s %s", done, total, info.SessionID[:8], status)
		},
	})
	fmt.Println()
	fmt.Println()

	fmt.Printf("Archived %d, skipped %d, errored %d.\n",
		result.Archived, result.Skipped, result.Errored)
	for _, e := range result.Errors {
		fmt.Printf("  %s: %s\n", e.Path, e.Message)
	}
	return nil
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveAll, "all", false, "archive every discovered session")
	archiveCmd.Flags().BoolVar(&archiveForce, "force", false, "re-archive already-archived sessions")
	archiveCmd.Flags().StringVar(&archiveLabel, "label", "", "attach a label to the archived session")
	rootCmd.AddCommand(archiveCmd)
}
