/*
Package clipping drives the end-to-end ingestion loop: list the day's
bundles, skip the already-processed ones, download, extract, match and
persist, then decide whether the digest email goes out.
*/
package clipping

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/GGRoca/dou-antt-clipping/internal/extract"
	"github.com/GGRoca/dou-antt-clipping/internal/inlabs"
	"github.com/GGRoca/dou-antt-clipping/internal/match"
	"github.com/GGRoca/dou-antt-clipping/internal/notify"
	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

// Catalog lists and downloads portal artifacts.
type Catalog interface {
	EnsureSession(ctx context.Context) error
	ListArtifacts(ctx context.Context, day time.Time, section string) ([]types.Artifact, error)
	Download(ctx context.Context, artifact types.Artifact) ([]byte, error)
}

// Store is the dedupe and audit store.
type Store interface {
	WasProcessed(ctx context.Context, fileURL string) (bool, error)
	MarkProcessed(ctx context.Context, runDate string, artifact types.Artifact) error
	InsertMatches(ctx context.Context, matches []types.Match) (int, error)
	LogRun(ctx context.Context, stats types.RunStats) error
}

// Notifier sends the digest email.
type Notifier interface {
	SendDigest(data notify.DigestData) error
}

// Options control one invocation.
type Options struct {
	// NoEmail suppresses the digest regardless of configuration.
	NoEmail bool

	// Backfill processes exactly the requested date (no lookback) and never
	// emails, so historical reprocessing can't trigger notifications.
	Backfill bool

	// ForceConfirmation sends a zero-match status email. The scheduler sets
	// this on designated confirmation runs instead of the pipeline checking
	// the wall clock itself.
	ForceConfirmation bool
}

// Deps wires the collaborators into the runner.
type Deps struct {
	Catalog       Catalog
	Store         Store
	Notifier      Notifier
	Filters       []types.FilterConfig
	LookbackDays  int
	MailEnabled   bool
	SubjectPrefix string
}

// Runner is the orchestrator. Strictly sequential; one invocation at a time.
type Runner struct {
	catalog       Catalog
	store         Store
	notifier      Notifier
	filters       []types.FilterConfig
	lookbackDays  int
	mailEnabled   bool
	subjectPrefix string
}

// New constructs the runner.
func New(deps Deps) *Runner {
	return &Runner{
		catalog:       deps.Catalog,
		store:         deps.Store,
		notifier:      deps.Notifier,
		filters:       deps.Filters,
		lookbackDays:  deps.LookbackDays,
		mailEnabled:   deps.MailEnabled,
		subjectPrefix: deps.SubjectPrefix,
	}
}

// Run executes the pipeline for the target date. Per-artifact and per-date
// failures are contained and reported via the run log notes; only
// authentication and storage failures abort the invocation.
func (r *Runner) Run(ctx context.Context, target time.Time, opts Options) (types.RunStats, error) {
	stats := types.RunStats{Date: target}
	var notes []string

	dates := r.window(target, opts)
	if !opts.Backfill && r.lookbackDays > 0 {
		notes = append(notes, fmt.Sprintf("janela: %s..%s",
			dates[0].Format("2006-01-02"), dates[len(dates)-1].Format("2006-01-02")))
	}

	if err := r.catalog.EnsureSession(ctx); err != nil {
		if errors.Is(err, inlabs.ErrAuthentication) {
			return stats, err
		}
		notes = append(notes, fmt.Sprintf("probe: %v", err))
	}

	var allMatches []types.Match

	for _, day := range dates {
		dayStr := day.Format("2006-01-02")

		for _, filter := range r.filters {
			artifacts, err := r.catalog.ListArtifacts(ctx, day, filter.Section)
			if err != nil {
				if errors.Is(err, inlabs.ErrAuthentication) {
					return stats, err
				}
				notes = append(notes, fmt.Sprintf("listagem %s/%s: %v", dayStr, filter.Section, err))
				continue
			}

			stats.FilesSeen += len(artifacts)

			for _, artifact := range artifacts {
				matches, processed, err := r.processArtifact(ctx, dayStr, artifact, filter)
				if err != nil {
					// Left unmarked so a future run retries it.
					log.Printf("clipping: skipping %s: %v", artifact.Name, err)
					notes = append(notes, fmt.Sprintf("erro %s: %v", artifact.Name, err))
					continue
				}
				if processed {
					stats.FilesNew++
					allMatches = append(allMatches, matches...)
				}
			}
		}
	}

	count, err := r.store.InsertMatches(ctx, allMatches)
	if err != nil {
		return stats, fmt.Errorf("persist matches: %w", err)
	}
	stats.MatchesFound = count

	stats.EmailSent = r.maybeEmail(target, allMatches, opts, &notes)

	if len(notes) == 0 {
		notes = append(notes, "OK")
	}
	stats.Notes = strings.Join(notes, "; ")

	// Logging failures never undo a completed run.
	if err := r.store.LogRun(ctx, stats); err != nil {
		log.Printf("clipping: run log failed: %v", err)
	}

	return stats, nil
}

// processArtifact runs the download→extract→match chain for one artifact and
// marks it processed on success. processed is false when the artifact was
// already ingested or its kind is unknown.
func (r *Runner) processArtifact(ctx context.Context, runDate string, artifact types.Artifact, filter types.FilterConfig) (matches []types.Match, processed bool, err error) {
	done, err := r.store.WasProcessed(ctx, artifact.URL)
	if err != nil {
		return nil, false, fmt.Errorf("dedupe lookup: %w", err)
	}
	if done {
		return nil, false, nil
	}

	if artifact.Kind == types.KindUnknown {
		log.Printf("clipping: unknown container kind for %s, skipping", artifact.Name)
		return nil, false, nil
	}

	data, err := r.catalog.Download(ctx, artifact)
	if err != nil {
		return nil, false, err
	}

	text, err := extract.Text(artifact.Kind, data)
	if err != nil {
		return nil, false, err
	}

	for _, hit := range match.FindHits(text, filter) {
		matches = append(matches, types.Match{
			RunDate:    runDate,
			SourceURL:  artifact.URL,
			FilterName: filter.Name,
			Keyword:    hit.Keyword,
			Snippet:    hit.Snippet,
		})
	}

	if err := r.store.MarkProcessed(ctx, runDate, artifact); err != nil {
		return nil, false, err
	}

	return matches, true, nil
}

// window returns the dates to scan, oldest first. Backfill disables the
// lookback entirely: historical data is assumed complete.
func (r *Runner) window(target time.Time, opts Options) []time.Time {
	if opts.Backfill || r.lookbackDays <= 0 {
		return []time.Time{target}
	}

	dates := make([]time.Time, 0, r.lookbackDays+1)
	for i := r.lookbackDays; i >= 0; i-- {
		dates = append(dates, target.AddDate(0, 0, -i))
	}
	return dates
}

// maybeEmail applies the send policy: matches found, or a forced
// confirmation run. Mail failures are recorded but never fail the run; the
// matches are already durable.
func (r *Runner) maybeEmail(target time.Time, matches []types.Match, opts Options, notes *[]string) bool {
	if !r.mailEnabled || opts.NoEmail || opts.Backfill || r.notifier == nil {
		return false
	}
	if len(matches) == 0 && !opts.ForceConfirmation {
		return false
	}

	data := notify.BuildDigest(target.Format("2006-01-02"), r.subjectPrefix, matches)
	if err := r.notifier.SendDigest(data); err != nil {
		*notes = append(*notes, fmt.Sprintf("email: %v", err))
		return false
	}

	return true
}
