package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		stats, err := store.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("Archive: %s\n", store.Root())
		fmt.Printf("  conversations: %d\n", stats.TotalConversations)
		fmt.Printf("  projects:      %d\n", stats.TotalProjects)
		fmt.Printf("  plans:         %d\n", stats.TotalPlans)
		fmt.Printf("  disk usage:    %s\n", formatBytes(stats.TotalSizeBytes))
		return nil
	},
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
