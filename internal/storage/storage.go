/*
Package storage owns the durable state of the clipping pipeline: which files
were already processed, the matches found and a per-run audit log, all in a
single local SQLite database.
*/
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_ts TEXT NOT NULL,
	run_date TEXT NOT NULL,
	files_seen INTEGER NOT NULL,
	files_new INTEGER NOT NULL,
	matches_found INTEGER NOT NULL,
	email_sent INTEGER NOT NULL,
	notes TEXT
);

CREATE TABLE IF NOT EXISTS processed_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_date TEXT NOT NULL,
	file_url TEXT NOT NULL UNIQUE,
	file_name TEXT NOT NULL,
	processed_ts TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_date TEXT NOT NULL,
	source_file_url TEXT NOT NULL,
	filter_name TEXT,
	keyword_hit TEXT NOT NULL,
	text_snippet TEXT NOT NULL,
	created_ts TEXT NOT NULL
);
`

// Store is the dedupe and audit store. One process at a time; the scheduler
// guarantees non-overlapping invocations.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if needed, enables WAL
// mode and initializes the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WasProcessed reports whether the artifact identifier was already ingested.
func (s *Store) WasProcessed(ctx context.Context, fileURL string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM processed_files WHERE file_url = ?`, fileURL).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query processed_files: %w", err)
	}
	return true, nil
}

// MarkProcessed records that an artifact was ingested under runDate.
// Inserting the same identifier twice is a no-op (first write wins).
func (s *Store) MarkProcessed(ctx context.Context, runDate string, artifact types.Artifact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_files (run_date, file_url, file_name, processed_ts)
		 VALUES (?, ?, ?, ?)`,
		runDate, artifact.URL, artifact.Name, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", artifact.Name, err)
	}
	return nil
}

// InsertMatches appends all matches in a single transaction and returns the
// number inserted. An empty batch is a no-op.
func (s *Store) InsertMatches(ctx context.Context, matches []types.Match) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert matches: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matches (run_date, source_file_url, filter_name, keyword_hit, text_snippet, created_ts)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert matches: %w", err)
	}
	defer stmt.Close()

	ts := nowUTC()
	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx, m.RunDate, m.SourceURL, m.FilterName, m.Keyword, m.Snippet, ts); err != nil {
			return 0, fmt.Errorf("insert match %s/%s: %w", m.SourceURL, m.Keyword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit matches: %w", err)
	}

	return len(matches), nil
}

// LogRun appends one audit row for an orchestrator invocation.
func (s *Store) LogRun(ctx context.Context, stats types.RunStats) error {
	emailSent := 0
	if stats.EmailSent {
		emailSent = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_ts, run_date, files_seen, files_new, matches_found, email_sent, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nowUTC(), stats.Date.Format("2006-01-02"), stats.FilesSeen, stats.FilesNew,
		stats.MatchesFound, emailSent, stats.Notes,
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
