package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/rulecraft/rulecraft/internal/ai"
	"github.com/rulecraft/rulecraft/internal/search"
	"github.com/rulecraft/rulecraft/internal/web"
)

var serveHost string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		engine := search.NewEngine(db)

		// Without an API key the scenario page stays up but rejects
		// ruling requests with a clear message
		var ruler web.Ruler
		if cfg.ClaudeAPIKey != "" {
			ruler = ai.NewClient(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeMaxTokens)
			log.Printf("Ruling requests enabled with model %s", cfg.ClaudeModel)
		} else {
			log.Printf("Warning: CLAUDE_API_KEY not set, ruling requests disabled")
		}

		server, err := web.NewServer(db, engine, ruler)
		if err != nil {
			return fmt.Errorf("create server: %w", err)
		}

		addr := fmt.Sprintf("%s:%d", serveHost, cfg.Port)
		log.Printf("Server listening on http://%s", addr)
		return http.ListenAndServe(addr, server.Handler())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "host to bind to")
}
