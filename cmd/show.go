package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showFull bool

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show an archived session",
	Long: `Shows an archived session's manifest summary. The id may be a
unique prefix. With --full, also prints the conversation messages.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		m, err := store.FindManifest(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", m.Title)
		fmt.Printf("  session:  %s\n", m.ID)
		fmt.Printf("  project:  %s (%s)\n", m.ProjectSlug, m.ProjectPath)
		fmt.Printf("  when:     %s  (%d min)\n",
			m.StartedAt.Format("2006-01-02 15:04"), m.DurationMinutes)
		fmt.Printf("  messages: %d, tool calls: %d\n", m.MessageCount, m.ToolCallCount)
		if m.UserLabel != "" {
			fmt.Printf("  label:    %s\n", m.UserLabel)
		}
		if len(m.Technologies) > 0 {
			fmt.Printf("  tech:     %s\n", strings.Join(m.Technologies, ", "))
		}
		if len(m.FilesModified) > 0 {
			fmt.Printf("  files:\n")
			for _, f := range m.FilesModified {
				fmt.Printf("    %s\n", f)
			}
		}
		if len(m.PlanRefs) > 0 {
			fmt.Printf("  plans:\n")
			for _, p := range m.PlanRefs {
				fmt.Printf("    %s (%s)\n", p.Title, p.Filename)
			}
		}
		if len(m.UserQuestions) > 0 {
			fmt.Printf("  questions:\n")
			for _, q := range m.UserQuestions {
				fmt.Printf("    - %s\n", q)
			}
		}

		conv, err := store.ReadConversation(m.ProjectSlug, m.ID)
		if err != nil {
			return err
		}
		approx := ""
		if conv.Stats.OutputEstimated {
			approx = " (output estimated)"
		}
		fmt.Printf("  tokens:   %d in / %d out%s\n",
			conv.Stats.InputTokens+conv.Stats.CacheReadTokens+conv.Stats.CacheCreationTokens,
			conv.Stats.OutputTokens, approx)
		fmt.Printf("  cost:     $%s\n", conv.Stats.CostUSD.StringFixed(4))

		if !showFull {
			return nil
		}
		fmt.Println()
		for _, msg := range conv.Messages {
			switch msg.Kind {
			case "user_message":
				fmt.Printf("[user] %s\n", msg.Text)
			case "assistant_message":
				fmt.Printf("[assistant] %s\n", msg.Text)
			case "tool_call":
				fmt.Printf("[tool] %s\n", msg.ToolName)
			case "web_search":
				fmt.Printf("[search] %s\n", msg.Query)
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showFull, "full", false, "print the conversation body")
	rootCmd.AddCommand(showCmd)
}
