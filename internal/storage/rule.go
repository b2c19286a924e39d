package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rule represents a single D&D 2024 rule entry
type Rule struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Category    string    `db:"category"`
	Subcategory *string   `db:"subcategory"` // NULL if not set
	Content     string    `db:"content"`
	Source      string    `db:"source"` // Book or document name
	Page        *int      `db:"page"`   // NULL if not set
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewRule creates a rule with a generated ID. Timestamps are assigned by the
// store on write, not here.
func NewRule(title, category, content, source string) *Rule {
	return &Rule{
		ID:       uuid.New().String(),
		Title:    title,
		Category: category,
		Content:  content,
		Source:   source,
	}
}

// Validate checks that required fields are present
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if r.Title == "" {
		return fmt.Errorf("rule %s: title is required", r.ID)
	}
	if r.Category == "" {
		return fmt.Errorf("rule %s: category is required", r.ID)
	}
	if r.Content == "" {
		return fmt.Errorf("rule %s: content is required", r.ID)
	}
	if r.Source == "" {
		return fmt.Errorf("rule %s: source is required", r.ID)
	}
	return nil
}

// PageLabel returns the page number as a string, or "N/A" when unset
func (r *Rule) PageLabel() string {
	if r.Page == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *r.Page)
}
