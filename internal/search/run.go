package search

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"filegrip/internal/domain"
	"filegrip/internal/fuzzy"
	"filegrip/internal/logger"
	"filegrip/internal/textfile"
	"filegrip/internal/walker"
)

// lineCheckInterval is how many lines are scanned between cancellation checks
const lineCheckInterval = 256

// Run is one execution of a query against the tree. Only the goroutine
// executing it touches its results; others may only Cancel it.
type Run struct {
	query      domain.SearchQuery
	walker     walker.Walker
	maxResults int
	cancelled  atomic.Bool
}

// NewRun creates a run for query. maxResults <= 0 keeps every item.
func NewRun(query domain.SearchQuery, w walker.Walker, maxResults int) *Run {
	return &Run{
		query:      query,
		walker:     w,
		maxResults: maxResults,
	}
}

// Generation returns the generation the run was started for
func (r *Run) Generation() uint64 {
	return r.query.Generation
}

// Query returns the run's query
func (r *Run) Query() domain.SearchQuery {
	return r.query
}

// Cancel asks the run to stop. It returns immediately; the run notices at its next check.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called
func (r *Run) Cancelled() bool {
	return r.cancelled.Load()
}

// Execute walks the tree and scores every candidate. It checks for
// cancellation after each candidate and every lineCheckInterval lines,
// and returns what it has so far tagged RunCancelled when asked to stop.
func (r *Run) Execute(ctx context.Context) domain.SearchResult {
	start := time.Now()
	result := domain.SearchResult{Query: r.query, Status: domain.RunCompleted}
	log := logger.Named("run").WithField("generation", r.query.Generation)

	if r.query.IsEmpty() {
		result.Elapsed = time.Since(start)
		return result
	}

	if err := r.walker.CheckRoot(r.query.Root); err != nil {
		log.WithField("root", r.query.Root).Warnf("search root unavailable: %v", err)
		result.Status = domain.RunRootUnavailable
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}

	matcher := fuzzy.New(r.query.Pattern())
	stopped := func() bool {
		return r.cancelled.Load() || ctx.Err() != nil
	}

	var items []domain.SearchItem
	for path := range r.walker.Walk(ctx, r.query.Root) {
		if stopped() {
			break
		}
		result.Scanned++

		rel := relPath(r.query.Root, path)
		if m, ok := matcher.Match(rel); ok {
			items = append(items, domain.NewFileItem(r.query.Root, domain.MatchResult{
				Path:        path,
				Score:       m.Score,
				Indices:     m.Indices,
				ColumnStart: m.Start(),
				ColumnEnd:   m.End(),
			}))
		}

		if r.query.IncludeContent {
			items = append(items, r.scanContent(path, matcher, stopped)...)
		}
	}

	if stopped() {
		result.Status = domain.RunCancelled
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Less(items[j])
	})
	if r.maxResults > 0 && len(items) > r.maxResults {
		items = items[:r.maxResults]
	}

	result.Items = items
	result.Elapsed = time.Since(start)
	log.WithField("items", len(items)).
		WithField("scanned", result.Scanned).
		WithField("status", result.Status).
		Debug("run finished")
	return result
}

// scanContent scores every line of one file. Matches are only kept when the
// whole file decodes; an unreadable or binary file contributes nothing.
func (r *Run) scanContent(path string, matcher *fuzzy.Matcher, stopped func() bool) []domain.SearchItem {
	var found []domain.SearchItem
	err := textfile.Lines(path, func(n int, line string) bool {
		if n%lineCheckInterval == 0 && n > 0 && stopped() {
			return false
		}
		m, ok := matcher.Match(line)
		if !ok {
			return true
		}
		found = append(found, domain.NewLineItem(r.query.Root, domain.MatchResult{
			Path:        path,
			Score:       m.Score,
			Indices:     m.Indices,
			Line:        n,
			ColumnStart: m.Start(),
			ColumnEnd:   m.End(),
			LineText:    line,
			Content:     true,
		}))
		return true
	})
	if err != nil {
		if !errors.Is(err, textfile.ErrNotText) {
			logger.Named("run").WithField("path", path).Debugf("skipping file: %v", err)
		}
		return nil
	}
	return found
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
