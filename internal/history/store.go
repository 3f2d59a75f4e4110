// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite log of search runs and the papers
// each run ranked, so earlier results can be listed and reopened.
package history

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

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/NikkiXIV/sci-paper-finder/pkg/types"
)

// ErrNotFound is returned when no run matches an ID.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an ID prefix matches more than one run.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// timeLayout is fixed-width so stored timestamps sort as strings in time
// order. RFC3339Nano trims trailing zeros and would put ".1Z" after ".12Z".
// Values are always stored in UTC, so the zone is always "Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// parseTime reads a stored timestamp. RFC3339Nano accepts both the
// fixed-width layout and the trimmed one written by earlier versions.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// paperColumns lists the run_papers columns read by scanPaper, in order.
const paperColumns = `title, authors, abstract, url, source, summary, score, external_id, published, doi, keywords, categories`

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Run is one recorded search.
type Run struct {
	ID                string                `json:"id"`
	Query             string                `json:"query"`
	MaxPerSource      int                   `json:"max_results_per_source"`
	StartedAt         time.Time             `json:"started_at"`
	Elapsed           time.Duration         `json:"elapsed_ns"`
	PaperCount        int                   `json:"paper_count"`
	DuplicatesRemoved int                   `json:"duplicates_removed"`
	Failures          []types.SourceFailure `json:"failures,omitempty"`
}

// PaperHit is a stored paper matched by SearchPapers.
type PaperHit struct {
	RunID string      `json:"run_id"`
	Query string      `json:"query"`
	Rank  int         `json:"rank"`
	Paper types.Paper `json:"paper"`
}

// NewStore opens or creates the history database at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
			query TEXT NOT NULL,
			max_per_source INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			paper_count INTEGER NOT NULL,
			duplicates_removed INTEGER NOT NULL,
			failures TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS run_papers (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			url TEXT NOT NULL,
			source TEXT NOT NULL,
			summary TEXT,
			score REAL NOT NULL,
			external_id TEXT,
			published TEXT,
			doi TEXT,
			keywords TEXT,
			categories TEXT,
			PRIMARY KEY (run_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_papers_url ON run_papers(url)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return s.addMissingColumns("run_papers", "doi", "keywords", "categories")
}

// addMissingColumns upgrades tables created before the named TEXT columns
// existed.
func (s *Store) addMissingColumns(table string, columns ...string) error {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("reading columns of %s: %w", table, err)
	}
	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("reading columns of %s: %w", table, err)
		}
		have[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading columns of %s: %w", table, err)
	}

	for _, col := range columns {
		if have[col] {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT`, table, col)); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", table, col, err)
		}
	}
	return nil
}

// Record stores a completed search and its ranked papers in one
// transaction and returns the new run. An empty id is replaced by a fresh
// UUID.
func (s *Store) Record(ctx context.Context, id string, req types.SearchRequest, result types.SearchResult, startedAt time.Time, elapsed time.Duration) (Run, error) {
	if id == "" {
		id = uuid.NewString()
	}
	run := Run{
		ID:                id,
		Query:             req.Query,
		MaxPerSource:      req.MaxResultsPerSource,
		StartedAt:         startedAt.UTC(),
		Elapsed:           elapsed,
		PaperCount:        len(result.Papers),
		DuplicatesRemoved: result.DuplicatesRemoved,
		Failures:          result.Failures,
	}

	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return Run{}, fmt.Errorf("marshaling failures: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, max_per_source, started_at, elapsed_ms, paper_count, duplicates_removed, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.MaxPerSource, run.StartedAt.Format(timeLayout),
		run.Elapsed.Milliseconds(), run.PaperCount, run.DuplicatesRemoved, string(failures),
	); err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_papers (run_id, rank, `+paperColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing paper insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range result.Papers {
		authors, err := json.Marshal(p.Authors)
		if err != nil {
			return Run{}, fmt.Errorf("marshaling authors: %w", err)
		}
		keywords, err := jsonList(p.Keywords)
		if err != nil {
			return Run{}, fmt.Errorf("marshaling keywords: %w", err)
		}
		categories, err := jsonList(p.Categories)
		if err != nil {
			return Run{}, fmt.Errorf("marshaling categories: %w", err)
		}
		var published sql.NullString
		if p.Published != nil {
			published = sql.NullString{String: p.Published.UTC().Format(timeLayout), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, i+1, p.Title, string(authors), p.Abstract, p.URL, string(p.Source),
			p.Summary, p.RelevanceScore, p.ExternalID, published, p.DOI, keywords, categories,
		); err != nil {
			return Run{}, fmt.Errorf("inserting paper %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, query, max_per_source, started_at, elapsed_ms, paper_count, duplicates_removed, failures
		FROM runs ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run whose ID equals or uniquely starts with id, with
// its papers in rank order.
func (s *Store) Get(ctx context.Context, id string) (Run, []types.Paper, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, max_per_source, started_at, elapsed_ms, paper_count, duplicates_removed, failures
		 FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\'
		 ORDER BY id = ? DESC, id LIMIT 2`,
		id, escapeLike(id)+"%", id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("looking up run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return Run{}, nil, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("looking up run: %w", err)
	}

	switch {
	case len(matches) == 0:
		return Run{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) > 1 && matches[0].ID != id:
		return Run{}, nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}

	run := matches[0]
	papers, err := s.papers(ctx, run.ID)
	if err != nil {
		return Run{}, nil, err
	}
	return run, papers, nil
}

func (s *Store) papers(ctx context.Context, runID string) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+` FROM run_papers WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading papers: %w", err)
	}
	defer rows.Close()

	papers := []types.Paper{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// SearchPapers finds stored papers whose title or summary contains text,
// case-insensitively, newest runs first.
func (s *Store) SearchPapers(ctx context.Context, text string, limit int) ([]PaperHit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("search text is empty")
	}
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.query, p.rank,
		        p.title, p.authors, p.abstract, p.url, p.source, p.summary, p.score, p.external_id, p.published,
		        p.doi, p.keywords, p.categories
		 FROM run_papers p JOIN runs r ON r.id = p.run_id
		 WHERE lower(p.title) LIKE ? ESCAPE '\' OR lower(p.summary) LIKE ? ESCAPE '\'
		 ORDER BY r.started_at DESC, p.rank
		 LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching papers: %w", err)
	}
	defer rows.Close()

	var hits []PaperHit
	for rows.Next() {
		var h PaperHit
		var c paperCols
		if err := rows.Scan(append([]any{&h.RunID, &h.Query, &h.Rank}, c.dest(&h.Paper)...)...); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if err := c.fill(&h.Paper); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var startedAt string
	var elapsedMS int64
	var failures sql.NullString
	if err := row.Scan(&run.ID, &run.Query, &run.MaxPerSource, &startedAt, &elapsedMS,
		&run.PaperCount, &run.DuplicatesRemoved, &failures); err != nil {
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}

	t, err := parseTime(startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at of run %s: %w", run.ID, err)
	}
	run.StartedAt = t
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	if failures.Valid && failures.String != "" && failures.String != "null" {
		if err := json.Unmarshal([]byte(failures.String), &run.Failures); err != nil {
			return Run{}, fmt.Errorf("parsing failures of run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

func scanPaper(row scanner) (types.Paper, error) {
	var p types.Paper
	var c paperCols
	if err := row.Scan(c.dest(&p)...); err != nil {
		return types.Paper{}, fmt.Errorf("scanning paper: %w", err)
	}
	if err := c.fill(&p); err != nil {
		return types.Paper{}, err
	}
	return p, nil
}

// paperCols holds the paperColumns values that need decoding before they
// can be stored in a Paper.
type paperCols struct {
	source                                  string
	authors, published, doi, keywords, cats sql.NullString
}

// dest returns scan destinations for paperColumns.
func (c *paperCols) dest(p *types.Paper) []any {
	return []any{&p.Title, &c.authors, &p.Abstract, &p.URL, &c.source,
		&p.Summary, &p.RelevanceScore, &p.ExternalID, &c.published, &c.doi, &c.keywords, &c.cats}
}

func (c *paperCols) fill(p *types.Paper) error {
	p.Source = types.Source(c.source)
	p.DOI = c.doi.String
	p.Authors = []string{}
	if c.authors.Valid && c.authors.String != "" {
		if err := json.Unmarshal([]byte(c.authors.String), &p.Authors); err != nil {
			return fmt.Errorf("parsing authors of %s: %w", p.URL, err)
		}
	}
	if c.keywords.Valid && c.keywords.String != "" {
		if err := json.Unmarshal([]byte(c.keywords.String), &p.Keywords); err != nil {
			return fmt.Errorf("parsing keywords of %s: %w", p.URL, err)
		}
	}
	if c.cats.Valid && c.cats.String != "" {
		if err := json.Unmarshal([]byte(c.cats.String), &p.Categories); err != nil {
			return fmt.Errorf("parsing categories of %s: %w", p.URL, err)
		}
	}
	if c.published.Valid && c.published.String != "" {
		t, err := parseTime(c.published.String)
		if err != nil {
			return fmt.Errorf("parsing published of %s: %w", p.URL, err)
		}
		p.Published = &t
	}
	return nil
}

// jsonList encodes a non-empty list as JSON and an empty one as NULL.
func jsonList(list []string) (sql.NullString, error) {
	if len(list) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
