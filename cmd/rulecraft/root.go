package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rulecraft/rulecraft/internal/config"
	"github.com/rulecraft/rulecraft/internal/storage"
)

const version = "0.1.0"

// cfg is loaded once before any subcommand runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rulecraft",
	Short: "Rulecraft is a D&D 2024 rules reference and ruling assistant",
	Long: `Rulecraft stores D&D 2024 rules in a local SQLite database, offers
keyword and fuzzy search over them, serves a small web UI, and forwards
scenario questions with retrieved rule context to Claude for a ruling.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; the environment may be set directly
		godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("rulecraft v" + version)
	},
}

// openDB opens the configured rules database
func openDB() (*storage.DB, error) {
	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	return db, nil
}
