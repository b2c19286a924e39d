package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps SQLite database operations for the rules table and its
// trigger-maintained FTS5 index
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	storage := &DB{db: db}

	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return storage, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates the rules table, the FTS5 index, and the triggers that
// keep the index in sync with every insert, update, and delete. The triggers
// fire inside the writing statement's transaction, so no read can observe a
// row without its matching index entry.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rules (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT,
		content TEXT NOT NULL,
		source TEXT NOT NULL,
		page INTEGER,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS rules_fts USING fts5(
		title,
		content,
		category,
		content='rules',
		content_rowid='rowid'
	);

	CREATE TRIGGER IF NOT EXISTS rules_ai AFTER INSERT ON rules BEGIN
		INSERT INTO rules_fts(rowid, title, content, category)
		VALUES (NEW.rowid, NEW.title, NEW.content, NEW.category);
	END;

	CREATE TRIGGER IF NOT EXISTS rules_ad AFTER DELETE ON rules BEGIN
		INSERT INTO rules_fts(rules_fts, rowid, title, content, category)
		VALUES ('delete', OLD.rowid, OLD.title, OLD.content, OLD.category);
	END;

	CREATE TRIGGER IF NOT EXISTS rules_au AFTER UPDATE ON rules BEGIN
		INSERT INTO rules_fts(rules_fts, rowid, title, content, category)
		VALUES ('delete', OLD.rowid, OLD.title, OLD.content, OLD.category);
		INSERT INTO rules_fts(rowid, title, content, category)
		VALUES (NEW.rowid, NEW.title, NEW.content, NEW.category);
	END;
	`

	_, err := d.db.Exec(schema)
	return err
}

const ruleColumns = "id, title, category, subcategory, content, source, page, created_at, updated_at"

type scannable interface {
	Scan(dest ...any) error
}

func scanRule(row scannable) (*Rule, error) {
	rule := &Rule{}
	err := row.Scan(
		&rule.ID, &rule.Title, &rule.Category, &rule.Subcategory,
		&rule.Content, &rule.Source, &rule.Page, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func collectRules(rows *sql.Rows) ([]*Rule, error) {
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Create inserts a new rule. Fails if the ID is already present or a
// required field is missing. Timestamps are assigned here, never taken from
// the caller.
func (d *DB) Create(rule *Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := d.db.Exec(`
	INSERT INTO rules (`+ruleColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.ID, rule.Title, rule.Category, rule.Subcategory,
		rule.Content, rule.Source, rule.Page, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create rule %s: %w", rule.ID, err)
	}
	return nil
}

// Upsert inserts the rule if its ID is absent, otherwise updates all mutable
// fields and refreshes updated_at, leaving created_at untouched. Returns true
// when a new row was inserted. The existence check and the write run in one
// transaction so concurrent upserts of the same ID serialize instead of
// racing into a duplicate-key failure.
func (d *DB) Upsert(rule *Rule) (bool, error) {
	if err := rule.Validate(); err != nil {
		return false, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	err = tx.QueryRow("SELECT created_at FROM rules WHERE id = ?", rule.ID).Scan(&createdAt)

	now := time.Now().UTC()
	inserted := false

	switch {
	case err == sql.ErrNoRows:
		rule.CreatedAt = now
		rule.UpdatedAt = now
		_, err = tx.Exec(`
		INSERT INTO rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rule.ID, rule.Title, rule.Category, rule.Subcategory,
			rule.Content, rule.Source, rule.Page, rule.CreatedAt, rule.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("upsert insert %s: %w", rule.ID, err)
		}
		inserted = true
	case err != nil:
		return false, fmt.Errorf("upsert lookup %s: %w", rule.ID, err)
	default:
		rule.CreatedAt = createdAt
		rule.UpdatedAt = now
		_, err = tx.Exec(`
		UPDATE rules SET
			title = ?, category = ?, subcategory = ?, content = ?,
			source = ?, page = ?, updated_at = ?
		WHERE id = ?
		`,
			rule.Title, rule.Category, rule.Subcategory, rule.Content,
			rule.Source, rule.Page, rule.UpdatedAt, rule.ID,
		)
		if err != nil {
			return false, fmt.Errorf("upsert update %s: %w", rule.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit upsert %s: %w", rule.ID, err)
	}
	return inserted, nil
}

// GetByID retrieves a rule by ID. Returns nil when no rule exists.
func (d *DB) GetByID(id string) (*Rule, error) {
	rule, err := scanRule(d.db.QueryRow(
		"SELECT "+ruleColumns+" FROM rules WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rule %s: %w", id, err)
	}
	return rule, nil
}

// GetAll retrieves every rule ordered by category, then title
func (d *DB) GetAll() ([]*Rule, error) {
	rows, err := d.db.Query(
		"SELECT " + ruleColumns + " FROM rules ORDER BY category, title",
	)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return collectRules(rows)
}

// Delete removes a rule. The delete trigger drops the matching index entry
// within the same statement.
func (d *DB) Delete(id string) error {
	if _, err := d.db.Exec("DELETE FROM rules WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return nil
}

// Count returns the total number of rules
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM rules").Scan(&count)
	return count, err
}

// SearchFTS runs an FTS5 MATCH query against the rules index. Results come
// back best match first; ties fall back to rowid (insertion order) so the
// ordering never varies between runs on identical data.
func (d *DB) SearchFTS(match string, limit int) ([]*Rule, error) {
	rows, err := d.db.Query(`
	SELECT r.id, r.title, r.category, r.subcategory, r.content,
	       r.source, r.page, r.created_at, r.updated_at
	FROM rules r
	JOIN rules_fts ON r.rowid = rules_fts.rowid
	WHERE rules_fts MATCH ?
	ORDER BY rules_fts.rank, r.rowid
	LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	return collectRules(rows)
}

// SearchLike runs a case-insensitive substring search over title, content,
// and category, ranked in four tiers: title prefix, title substring,
// category substring, then content-only matches. Alphabetical by title
// within a tier.
func (d *DB) SearchLike(query string, limit int) ([]*Rule, error) {
	contains := "%" + query + "%"
	prefix := query + "%"

	rows, err := d.db.Query(`
	SELECT `+ruleColumns+`
	FROM rules
	WHERE title LIKE ? OR content LIKE ? OR category LIKE ?
	ORDER BY CASE
		WHEN title LIKE ? THEN 1
		WHEN title LIKE ? THEN 2
		WHEN category LIKE ? THEN 3
		ELSE 4
	END, title
	LIMIT ?
	`, contains, contains, contains, prefix, contains, contains, limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	return collectRules(rows)
}

// IndexCount returns the number of documents held by the FTS index itself.
// rules_fts is an external-content table, so counting it directly would just
// re-count the rules table; the docsize shadow table has one row per indexed
// document.
func (d *DB) IndexCount() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM rules_fts_docsize").Scan(&count)
	return count, err
}
