// Package importer loads rule definitions from YAML files and applies them
// to the store through the upsert path.
package importer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rulecraft/rulecraft/internal/storage"
)

// yamlRule is a single rule entry in a rules file
type yamlRule struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	Subcategory *string `yaml:"subcategory"`
	Page        *int    `yaml:"page"`
	Content     string  `yaml:"content"`
}

// rulesFile is one YAML file: a category and source shared by its rules
type rulesFile struct {
	Category string     `yaml:"category"`
	Source   string     `yaml:"source"`
	Rules    []yamlRule `yaml:"rules"`
}

// Stats holds import statistics
type Stats struct {
	FilesParsed int
	ParseErrors int
	Inserted    int
	Updated     int
	Failed      int
}

// Importer applies YAML rule files to a store
type Importer struct {
	db     *storage.DB
	dryRun bool
}

// New creates an importer. With dryRun set, files are parsed and reported
// but nothing is written.
func New(db *storage.DB, dryRun bool) *Importer {
	return &Importer{db: db, dryRun: dryRun}
}

// ImportDir imports every *.yaml file in dir. A rule that fails to upsert is
// logged and counted but does not abort the batch; a file that fails to
// parse is skipped the same way.
func (im *Importer) ImportDir(dir string) (*Stats, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob rules dir: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no YAML files found in %s", dir)
	}

	stats := &Stats{}
	var rules []*storage.Rule

	for _, path := range paths {
		fileRules, err := parseFile(path)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", path, err)
			stats.ParseErrors++
			continue
		}
		stats.FilesParsed++
		rules = append(rules, fileRules...)
	}

	if im.dryRun {
		for _, rule := range rules {
			log.Printf("would import %s (%s / %s)", rule.ID, rule.Category, rule.Title)
		}
		return stats, nil
	}

	for _, rule := range rules {
		inserted, err := im.db.Upsert(rule)
		if err != nil {
			log.Printf("Warning: failed to import rule %s: %v", rule.ID, err)
			stats.Failed++
			continue
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	return stats, nil
}

// parseFile reads one YAML rules file and expands it into storage rules,
// stamping each with the file-level category and source
func parseFile(path string) ([]*storage.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	rules := make([]*storage.Rule, 0, len(file.Rules))
	for _, yr := range file.Rules {
		rules = append(rules, &storage.Rule{
			ID:          yr.ID,
			Title:       yr.Title,
			Category:    file.Category,
			Subcategory: yr.Subcategory,
			Content:     yr.Content,
			Source:      file.Source,
			Page:        yr.Page,
		})
	}

	return rules, nil
}
