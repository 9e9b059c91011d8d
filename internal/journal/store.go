// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a local SQLite history of composed answers for the
// CLI's history command. The retrieval pipeline never reads it.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// DefaultPath is the journal database used when none is configured.
const DefaultPath = ".citations-engine/journal.db"

const defaultListLimit = 20

var (
	// ErrNotFound is returned by Get when no run matches the ID.
	ErrNotFound = errors.New("run not found")

	// ErrAmbiguousID is returned by Get when an ID prefix matches several runs.
	ErrAmbiguousID = errors.New("ambiguous run id")
)

// Store manages the journal database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			confidence TEXT NOT NULL,
			summary TEXT,
			hops INTEGER,
			elapsed_ms INTEGER,
			created_at TEXT NOT NULL,
			answer TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			domain TEXT,
			title TEXT,
			date TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sources_domain ON sources(domain)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one recorded answer.
type Run struct {
	ID         string               `json:"id" yaml:"id"`
	Question   string               `json:"question" yaml:"question"`
	Confidence types.Confidence     `json:"confidence" yaml:"confidence"`
	Elapsed    time.Duration        `json:"elapsed" yaml:"elapsed"`
	CreatedAt  time.Time            `json:"created_at" yaml:"created_at"`
	Answer     types.ComposedAnswer `json:"answer" yaml:"answer"`
}

// Record stores answer under runID. Recording the same runID twice
// replaces the earlier entry.
func (s *Store) Record(ctx context.Context, runID, question string, answer types.ComposedAnswer, elapsed time.Duration) error {
	if runID == "" {
		return fmt.Errorf("recording run: empty run id")
	}
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("marshaling answer: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("deleting old sources: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, question, confidence, summary, hops, elapsed_ms, created_at, answer)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			question=excluded.question, confidence=excluded.confidence, summary=excluded.summary,
			hops=excluded.hops, elapsed_ms=excluded.elapsed_ms, created_at=excluded.created_at,
			answer=excluded.answer`,
		runID, question, string(answer.Confidence), answer.Summary, answer.Method.Hops,
		elapsed.Milliseconds(), s.now().UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sources (run_id, position, url, domain, title, date) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, src := range answer.Sources {
		if _, err := stmt.ExecContext(ctx, runID, i, src.URL, src.Domain, src.Title, src.Date.String()); err != nil {
			return fmt.Errorf("inserting source %s: %w", src.URL, err)
		}
	}

	return tx.Commit()
}

// ListOptions filters List.
type ListOptions struct {
	// Query matches question or summary text, case-insensitively.
	Query string

	// Domain keeps runs that cited this domain.
	Domain string

	Confidence types.Confidence

	// Limit caps the result count. Zero uses a default of 20.
	Limit int
}

// RunSummary is one List row.
type RunSummary struct {
	ID         string           `json:"id" yaml:"id"`
	Question   string           `json:"question" yaml:"question"`
	Confidence types.Confidence `json:"confidence" yaml:"confidence"`
	Sources    int              `json:"sources" yaml:"sources"`
	CreatedAt  time.Time        `json:"created_at" yaml:"created_at"`
}

// List returns recorded runs, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]RunSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT r.id, r.question, r.confidence, r.created_at,
			(SELECT count(*) FROM sources s WHERE s.run_id = r.id)
		FROM runs r
		WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND (r.question LIKE ? ESCAPE '\' OR r.summary LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(opts.Query) + "%"
		args = append(args, pattern, pattern)
	}
	if opts.Domain != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM sources s WHERE s.run_id = r.id AND s.domain = ?)`)
		args = append(args, strings.ToLower(opts.Domain))
	}
	if opts.Confidence != "" {
		qb.WriteString(` AND r.confidence = ?`)
		args = append(args, string(opts.Confidence))
	}

	qb.WriteString(` ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			rs         RunSummary
			confidence string
			created    string
		)
		if err := rows.Scan(&rs.ID, &rs.Question, &confidence, &created, &rs.Sources); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rs.Confidence = types.Confidence(confidence)
		rs.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Get returns the run with the given ID. A unique ID prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, confidence, elapsed_ms, created_at, answer
		 FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\'
		 ORDER BY id = ? DESC LIMIT 2`,
		id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("looking up run: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var (
			r          Run
			confidence string
			elapsedMS  int64
			created    string
			answer     string
		)
		if err := rows.Scan(&r.ID, &r.Question, &confidence, &elapsedMS, &created, &answer); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Confidence = types.Confidence(confidence)
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		if err := json.Unmarshal([]byte(answer), &r.Answer); err != nil {
			return nil, fmt.Errorf("decoding answer for %s: %w", r.ID, err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case runs[0].ID == id || len(runs) == 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// Delete removes a run and its sources.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
