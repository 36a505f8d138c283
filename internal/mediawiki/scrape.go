package mediawiki

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

// ScrapeResult holds the outcome of a batch scrape run.
type ScrapeResult struct {
	Fetched int
	Skipped int
	Missing int
	Failed  int
}

// Total returns the total number of titles processed.
func (r ScrapeResult) Total() int {
	return r.Fetched + r.Skipped + r.Missing + r.Failed
}

// HasFailures reports whether any titles failed.
func (r ScrapeResult) HasFailures() bool {
	return r.Failed > 0
}

// Scrape fetches the wikitext for each title and saves one raw article
// record per page (R2.1-R2.5). Titles already present in the store are
// skipped unless refetch is set. A batch-level fetch error fails every
// title in that batch; the run continues with the next batch (R4.1).
func Scrape(ctx context.Context, c *Client, st *store.Store, titles []string, refetch bool, w io.Writer) (ScrapeResult, error) {
	var result ScrapeResult

	pending := titles
	if !refetch {
		pending = nil
		for _, t := range titles {
			if st.HasRaw(t) {
				result.Skipped++
				continue
			}
			pending = append(pending, t)
		}
		if result.Skipped > 0 {
			fmt.Fprintf(w, "skipped %d titles (already fetched)\n", result.Skipped)
		}
	}

	batches := batchTitles(pending, c.BatchSize())
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		fmt.Fprintf(w, "fetching batch %d/%d (%d titles)\n", i+1, len(batches), len(batch))

		pages, missing, err := c.FetchBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			for _, t := range batch {
				fmt.Fprintf(w, "failed:  %s (%v)\n", t, err)
				result.Failed++
			}
			continue
		}

		for _, t := range missing {
			fmt.Fprintf(w, "missing: %s (no such page)\n", t)
			result.Missing++
		}
		for title, wikitext := range pages {
			art := types.RawArticle{Title: title, Wikitext: wikitext}
			if err := st.SaveRaw(art); err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", title, err)
				result.Failed++
				continue
			}
			result.Fetched++
		}
	}

	fmt.Fprintf(w, "\nScrape summary: %d fetched, %d skipped, %d missing, %d failed (total: %d)\n",
		result.Fetched, result.Skipped, result.Missing, result.Failed, result.Total())
	return result, nil
}

// batchTitles splits titles into groups of at most size.
func batchTitles(titles []string, size int) [][]string {
	var batches [][]string
	for len(titles) > size {
		batches = append(batches, titles[:size])
		titles = titles[size:]
	}
	if len(titles) > 0 {
		batches = append(batches, titles)
	}
	return batches
}
