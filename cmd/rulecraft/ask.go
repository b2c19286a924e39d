package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulecraft/rulecraft/internal/ai"
	"github.com/rulecraft/rulecraft/internal/search"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a scenario question and get a ruling from Claude",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ClaudeAPIKey == "" {
			return ai.ErrNotConfigured
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		question := strings.Join(args, " ")

		relevantRules, err := search.NewEngine(db).FullText(question)
		if err != nil {
			return fmt.Errorf("search for context: %w", err)
		}

		client := ai.NewClient(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeMaxTokens)
		ruling, err := client.GetRuling(cmd.Context(), question, relevantRules)
		if err != nil {
			return fmt.Errorf("get ruling: %w", err)
		}

		fmt.Println(ruling)

		if len(relevantRules) > 0 {
			fmt.Println()
			fmt.Println("Cited rules:")
			for _, rule := range relevantRules {
				fmt.Printf("  - %s (%s, Page %s)\n", rule.Title, rule.Source, rule.PageLabel())
			}
		}
		return nil
	},
}
