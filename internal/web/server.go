// Package web is the HTTP boundary: routing, server-rendered pages, and the
// degradation policy for search and ruling failures.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/rulecraft/rulecraft/internal/search"
	"github.com/rulecraft/rulecraft/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// suggestLimit caps type-ahead suggestions
const suggestLimit = 8

// Ruler produces a natural-language ruling for a question grounded in the
// given rules. Satisfied by *ai.Client.
type Ruler interface {
	GetRuling(ctx context.Context, question string, relevantRules []*storage.Rule) (string, error)
}

type Server struct {
	db        *storage.DB
	engine    *search.Engine
	ruler     Ruler // nil when no API key is configured
	templates *template.Template
}

// NewServer creates the web server. Pass a nil ruler when no Claude API key
// is configured; ruling requests are then rejected with a clear message
// instead of attempting the call.
func NewServer(db *storage.DB, engine *search.Engine, ruler Ruler) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		db:        db,
		engine:    engine,
		ruler:     ruler,
		templates: tmpl,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.FileServer(http.FS(staticFS)))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /rules", s.handleListRules)
	mux.HandleFunc("GET /rules/{id}", s.handleGetRule)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /suggest", s.handleSuggest)
	mux.HandleFunc("GET /scenario", s.handleScenarioForm)
	mux.HandleFunc("POST /scenario/ask", s.handleAskScenario)
	mux.HandleFunc("POST /api/rules", s.handleCreateRule)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", map[string]any{
		"Title":  "Rulecraft - D&D 2024 Rules",
		"CanAsk": s.ruler != nil,
	})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.db.GetAll()
	if err != nil {
		log.Printf("Error listing rules: %v", err)
		rules = nil
	}

	s.render(w, "rules.html", map[string]any{
		"Title": "Rules",
		"Rules": rules,
	})
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.db.GetByID(r.PathValue("id"))
	if err != nil {
		log.Printf("Error fetching rule: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rule == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, "rule.html", map[string]any{
		"Title": rule.Title,
		"Rule":  rule,
	})
}

// handleSearch renders full-text results. A search engine failure degrades
// to an empty result page here, at the boundary; the engine itself reported
// it distinctly.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var results []*storage.Rule
	if query != "" {
		var err error
		results, err = s.engine.FullText(query)
		if err != nil {
			log.Printf("Error searching for %q: %v", query, err)
			results = nil
		}
	}

	s.render(w, "search.html", map[string]any{
		"Title":   "Search: " + query,
		"Query":   query,
		"Results": results,
	})
}

// handleSuggest returns an HTML fragment of fuzzy matches for type-ahead
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := suggestLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	results, err := s.engine.Fuzzy(query, limit)
	if err != nil {
		log.Printf("Error suggesting for %q: %v", query, err)
		results = nil
	}

	w.Header().Set("Content-Type", "text/html")

	if len(results) == 0 {
		fmt.Fprint(w, `<div class="no-suggestions"></div>`)
		return
	}

	for _, rule := range results {
		fmt.Fprintf(w, `<a class="suggestion-item" href="/rules/%s"><strong>%s</strong> <span class="suggestion-category">%s</span></a>`,
			template.HTMLEscapeString(rule.ID),
			template.HTMLEscapeString(rule.Title),
			template.HTMLEscapeString(rule.Category))
	}
}

func (s *Server) handleScenarioForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "scenario.html", map[string]any{
		"Title": "Ask a Scenario Question",
	})
}

// handleAskScenario grounds the question with a full-text search over the
// question itself, then asks for a ruling. Every pipeline failure is
// degraded to inline text on the response page; the cited rules still
// render.
func (s *Server) handleAskScenario(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	question := r.PostFormValue("question")
	if question == "" {
		http.Error(w, "Missing question", http.StatusBadRequest)
		return
	}

	relevantRules, err := s.engine.FullText(question)
	if err != nil {
		log.Printf("Error searching for scenario context: %v", err)
		relevantRules = nil
	}

	var answer string
	if s.ruler == nil {
		answer = "Claude API key not configured. Please set CLAUDE_API_KEY environment variable."
	} else {
		answer, err = s.ruler.GetRuling(r.Context(), question, relevantRules)
		if err != nil {
			log.Printf("Error getting ruling: %v", err)
			answer = fmt.Sprintf("Error getting ruling: %v", err)
		}
	}

	s.render(w, "ruling.html", map[string]any{
		"Title":      "Ruling",
		"Question":   question,
		"Answer":     answer,
		"CitedRules": relevantRules,
	})
}

// createRuleRequest is the JSON body for POST /api/rules
type createRuleRequest struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Subcategory *string `json:"subcategory"`
	Content     string  `json:"content"`
	Source      string  `json:"source"`
	Page        *int    `json:"page"`
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var payload createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	rule := storage.NewRule(payload.Title, payload.Category, payload.Content, payload.Source)
	rule.Subcategory = payload.Subcategory
	rule.Page = payload.Page

	if err := rule.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	if err := s.db.Create(rule); err != nil {
		log.Printf("Error creating rule: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      rule.ID,
		"message": "Rule created successfully",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, _ := s.db.Count()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"rules_in_db":      count,
		"ruling_available": s.ruler != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
