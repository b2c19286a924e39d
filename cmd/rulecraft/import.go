package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rulecraft/rulecraft/internal/importer"
)

var (
	importRulesDir string
	importDryRun   bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import rules from YAML files into the database",
	Long: `Import reads every *.yaml file in the rules directory and applies each
rule through the upsert path: new IDs are inserted, existing IDs are
updated in place. A rule that fails to apply is reported and skipped
without aborting the batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if importDryRun {
			fmt.Println("DRY RUN MODE - No changes will be made")
			fmt.Println()
		}

		stats, err := importer.New(db, importDryRun).ImportDir(importRulesDir)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println("=== Import Complete ===")
		fmt.Printf("Files parsed:  %d\n", stats.FilesParsed)
		if stats.ParseErrors > 0 {
			fmt.Printf("Parse errors:  %d\n", stats.ParseErrors)
		}
		fmt.Printf("Inserted:      %d new rules\n", stats.Inserted)
		fmt.Printf("Updated:       %d existing rules\n", stats.Updated)
		if stats.Failed > 0 {
			fmt.Printf("Failed:        %d rules\n", stats.Failed)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importRulesDir, "rules-dir", "data/rules", "directory containing rule YAML files")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "preview changes without modifying the database")
}
