// Package search implements the two retrieval strategies over the rule
// store: full-text matching through the FTS5 index, and fuzzy substring
// matching for type-ahead suggestions.
package search

import (
	"strings"
	"unicode"

	"github.com/rulecraft/rulecraft/internal/storage"
)

// fullTextLimit caps full-text results. Scenario grounding never needs more
// context than this.
const fullTextLimit = 20

// Engine answers search queries against a rule store
type Engine struct {
	db *storage.DB
}

// NewEngine creates a search engine over the given store
func NewEngine(db *storage.DB) *Engine {
	return &Engine{db: db}
}

// FullText searches the FTS5 index with a token-OR query: a rule matches if
// any query token appears in its title, content, or category. Queries that
// sanitize down to nothing return an empty result, not an error. Store
// failures are returned as-is; degrading them to "no results" is the
// caller's decision.
func (e *Engine) FullText(query string) ([]*storage.Rule, error) {
	match := SanitizeQuery(query)
	if match == "" {
		return nil, nil
	}
	return e.db.SearchFTS(match, fullTextLimit)
}

// Fuzzy performs a case-insensitive substring search over title, content,
// and category, ranked in strict tiers: title prefix, title substring,
// category substring, then content-only matches, alphabetical by title
// within a tier. An empty query returns an empty result; limit caps the
// result count.
func (e *Engine) Fuzzy(query string, limit int) ([]*storage.Rule, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	return e.db.SearchLike(query, limit)
}

// SanitizeQuery strips everything that is not alphanumeric or whitespace and
// joins the surviving tokens with FTS5's OR operator. Returns "" when no
// tokens survive.
func SanitizeQuery(query string) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " OR ")
}
