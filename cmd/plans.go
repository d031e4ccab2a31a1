package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacquesdev/jacques/pkg/discovery"
)

var plansProject string

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List archived plan documents",
	Long: `Lists deduplicated plan documents across the archive, newest first.
Each plan shows how many sessions referenced it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		slug := ""
		if plansProject != "" {
			slug = discovery.ProjectSlug(plansProject)
		}

		all, err := store.Plans(slug)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("No plans archived.")
			return nil
		}

		for _, p := range all {
			fmt.Printf("%s  %s\n", p.UpdatedAt.Format("2006-01-02"), p.Title)
			fmt.Printf("            %s  (%d session(s))\n", p.Filename, len(p.Sessions))
		}
		return nil
	},
}

func init() {
	plansCmd.Flags().StringVar(&plansProject, "project", "", "restrict to a project path")
	rootCmd.AddCommand(plansCmd)
}
