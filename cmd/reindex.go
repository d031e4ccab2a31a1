package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from archived manifests",
	Long: `Rebuilds index.json from scratch by re-reading every manifest.
Use this after index corruption or a failed archive write.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		n, err := store.Reindex()
		if err != nil {
			return err
		}
		fmt.Printf("Reindexed %d conversation(s).\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
