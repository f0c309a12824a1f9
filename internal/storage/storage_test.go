package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "clipping.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clipping.db")

	for i := 0; i < 3; i++ {
		s, err := Open(ctx, path)
		if err != nil {
			t.Fatalf("Open iteration %d: %v", i, err)
		}
		s.Close()
	}
}

func TestProcessedFilesDedupe(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	artifact := types.Artifact{
		Name: "2025-06-10-DO1.zip",
		URL:  "https://inlabs.in.gov.br/index.php?p=2025-06-10&dl=2025-06-10-DO1.zip",
		Kind: types.KindZip,
	}

	done, err := s.WasProcessed(ctx, artifact.URL)
	if err != nil {
		t.Fatalf("WasProcessed: %v", err)
	}
	if done {
		t.Fatal("fresh artifact reported as processed")
	}

	if err := s.MarkProcessed(ctx, "2025-06-10", artifact); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	// Duplicate mark is a no-op, never an error.
	if err := s.MarkProcessed(ctx, "2025-06-11", artifact); err != nil {
		t.Fatalf("duplicate MarkProcessed: %v", err)
	}

	done, err = s.WasProcessed(ctx, artifact.URL)
	if err != nil {
		t.Fatalf("WasProcessed: %v", err)
	}
	if !done {
		t.Error("artifact not reported as processed after marking")
	}

	var rows int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_files WHERE file_url = ?`, artifact.URL).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("expected 1 processed_files row, got %d", rows)
	}

	var runDate string
	if err := s.db.QueryRow(`SELECT run_date FROM processed_files WHERE file_url = ?`, artifact.URL).Scan(&runDate); err != nil {
		t.Fatalf("read run_date: %v", err)
	}
	if runDate != "2025-06-10" {
		t.Errorf("run_date = %s, first write must win", runDate)
	}
}

func TestInsertMatches(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	count, err := s.InsertMatches(ctx, nil)
	if err != nil {
		t.Fatalf("InsertMatches(nil): %v", err)
	}
	if count != 0 {
		t.Errorf("empty batch count = %d, want 0", count)
	}

	matches := []types.Match{
		{RunDate: "2025-06-10", SourceURL: "u1", FilterName: "antt-sufer", Keyword: "ferrovia", Snippet: "…"},
		{RunDate: "2025-06-10", SourceURL: "u1", FilterName: "antt-sufer", Keyword: "concessão", Snippet: "…"},
	}

	count, err = s.InsertMatches(ctx, matches)
	if err != nil {
		t.Fatalf("InsertMatches: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	var stored int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&stored); err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if stored != 2 {
		t.Errorf("stored = %d, want 2", stored)
	}
}

func TestLogRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	date, _ := time.Parse("2006-01-02", "2025-06-10")
	stats := types.RunStats{
		Date:         date,
		FilesSeen:    5,
		FilesNew:     2,
		MatchesFound: 1,
		EmailSent:    true,
		Notes:        "janela: 2025-06-08..2025-06-10",
	}

	if err := s.LogRun(ctx, stats); err != nil {
		t.Fatalf("LogRun: %v", err)
	}
	if err := s.LogRun(ctx, stats); err != nil {
		t.Fatalf("second LogRun: %v", err)
	}

	var rows int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&rows); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if rows != 2 {
		t.Errorf("runs rows = %d, audit log must append", rows)
	}

	var seen, newFiles, found, emailSent int
	var notes string
	err := s.db.QueryRow(`SELECT files_seen, files_new, matches_found, email_sent, notes FROM runs ORDER BY id LIMIT 1`).
		Scan(&seen, &newFiles, &found, &emailSent, &notes)
	if err != nil {
		t.Fatalf("read run row: %v", err)
	}
	if seen != 5 || newFiles != 2 || found != 1 || emailSent != 1 {
		t.Errorf("run row = (%d,%d,%d,%d), want (5,2,1,1)", seen, newFiles, found, emailSent)
	}
	if notes != stats.Notes {
		t.Errorf("notes = %q, want %q", notes, stats.Notes)
	}
}
