package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive as a compressed snapshot",
	Long: `Writes a zstd-compressed tar snapshot of the whole archive,
suitable for backup or moving to another machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("jacques-archive-%s.tar.zst", time.Now().Format("2006-01-02"))
		}

		if err := store.ExportToFile(out); err != nil {
			return err
		}
		fmt.Printf("Exported archive to %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default jacques-archive-<date>.tar.zst)")
	rootCmd.AddCommand(exportCmd)
}
