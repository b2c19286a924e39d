package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulecraft/rulecraft/internal/search"
	"github.com/rulecraft/rulecraft/internal/storage"
)

var (
	searchFuzzy bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the rules database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		engine := search.NewEngine(db)
		query := strings.Join(args, " ")

		var results []*storage.Rule
		if searchFuzzy {
			results, err = engine.Fuzzy(query, searchLimit)
		} else {
			results, err = engine.FullText(query)
		}
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No results found")
			return nil
		}

		fmt.Printf("Found %d results:\n\n", len(results))
		for i, rule := range results {
			fmt.Printf("%d. %s\n", i+1, rule.Title)
			fmt.Printf("   Category: %s", rule.Category)
			if rule.Subcategory != nil {
				fmt.Printf(" / %s", *rule.Subcategory)
			}
			fmt.Println()
			fmt.Printf("   %s, Page %s\n", rule.Source, rule.PageLabel())
			fmt.Println()
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchFuzzy, "fuzzy", false, "use fuzzy substring matching instead of full-text search")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results for fuzzy search")
}
