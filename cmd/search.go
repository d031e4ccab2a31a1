package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacquesdev/jacques/pkg/archive"
	"github.com/jacquesdev/jacques/pkg/discovery"
)

var (
	searchProject string
	searchTech    []string
	searchSince   string
	searchUntil   string
	searchPage    int
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search archived sessions by keyword",
	Long: `Searches archived session manifests. Keywords match titles, user
questions, modified files, technologies and context snippets, with
title matches ranked highest. Without a query, lists all archived
sessions most recent first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		filters := archive.Filters{Technologies: searchTech}
		if searchProject != "" {
			filters.ProjectID = discovery.EncodeProjectPath(searchProject)
		}
		if searchSince != "" {
			t, err := time.Parse("2006-01-02", searchSince)
			if err != nil {
				return fmt.Errorf("invalid --since date %q (want YYYY-MM-DD)", searchSince)
			}
			filters.Since = t
		}
		if searchUntil != "" {
			t, err := time.Parse("2006-01-02", searchUntil)
			if err != nil {
				return fmt.Errorf("invalid --until date %q (want YYYY-MM-DD)", searchUntil)
			}
			// Include the whole end day
			filters.Until = t.Add(24*time.Hour - time.Nanosecond)
		}

		query := strings.Join(args, " ")
		results, err := store.Search(query, filters, searchPage, searchLimit)
		if err != nil {
			return err
		}

		if results.Total == 0 {
			fmt.Println("No matching sessions.")
			return nil
		}

		for _, r := range results.Results {
			m := r.Manifest
			fmt.Printf("%s  %s  %s\n", m.ID[:8], m.EndedAt.Format("2006-01-02"), m.Title)
			fmt.Printf("          project: %s", m.ProjectSlug)
			if len(m.Technologies) > 0 {
				fmt.Printf("   tech: %s", strings.Join(m.Technologies, ", "))
			}
			if len(m.PlanRefs) > 0 {
				fmt.Printf("   plans: %d", len(m.PlanRefs))
			}
			fmt.Println()
		}

		shown := (results.Page-1)*results.PageSize + len(results.Results)
		if shown < results.Total {
			fmt.Printf("\nShowing %d of %d (use --page %d for more)\n",
				shown, results.Total, results.Page+1)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchProject, "project", "", "restrict to a project path")
	searchCmd.Flags().StringSliceVar(&searchTech, "tech", nil, "require these technologies")
	searchCmd.Flags().StringVar(&searchSince, "since", "", "only sessions ending on/after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchUntil, "until", "", "only sessions starting on/before this date (YYYY-MM-DD)")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "result page")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "results per page")
	rootCmd.AddCommand(searchCmd)
}
