package wikitext

import (
	"fmt"
	"io"

	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

// BatchResult holds the outcome of a batch cleanup run.
type BatchResult struct {
	Cleaned int
	Skipped int
	Failed  int
}

// Total returns the total number of articles processed.
func (r BatchResult) Total() int {
	return r.Cleaned + r.Skipped + r.Failed
}

// HasFailures reports whether any articles failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// CleanArticle cleans a single raw article and persists the result. If the
// cleaned record already exists and force is not set, it skips the work.
// The skipped return value indicates whether cleaning was skipped.
func CleanArticle(st *store.Store, name string, force bool, w io.Writer) (skipped bool, err error) {
	if !force && st.HasCleaned(name) {
		fmt.Fprintf(w, "skipped: %s (already cleaned)\n", name)
		return true, nil
	}

	raw, err := st.LoadRaw(name)
	if err != nil {
		return false, fmt.Errorf("loading raw article: %w", err)
	}

	cleaned := types.CleanedArticle{
		Title:   raw.Title,
		Content: Clean(raw.Wikitext),
	}
	if err := st.SaveCleaned(cleaned); err != nil {
		return false, fmt.Errorf("saving cleaned article: %w", err)
	}

	fmt.Fprintf(w, "cleaned: %s (%d chars)\n", name, len(cleaned.Content))
	return false, nil
}

// CleanBatch runs every raw article in the store through the cleaner,
// printing per-item status and returning a summary. It continues after
// individual failures.
func CleanBatch(st *store.Store, force bool, w io.Writer) (BatchResult, error) {
	names, err := st.ListRaw()
	if err != nil {
		return BatchResult{}, fmt.Errorf("listing raw articles: %w", err)
	}

	var result BatchResult
	for _, name := range names {
		wasSkipped, err := CleanArticle(st, name, force, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Cleaned++
		}
	}

	fmt.Fprintf(w, "\nCleanup summary: %d cleaned, %d skipped, %d failed (total: %d)\n",
		result.Cleaned, result.Skipped, result.Failed, result.Total())
	return result, nil
}
