// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest drives articles from the cache into the index: a worker
// pool normalizes and segments article batches while the coordinating
// goroutine alone commits chunks, tracks progress, and checkpoints.
// Implements: prd004-ingest (R1-R5);
//
//	docs/ARCHITECTURE § Ingestion.
package ingest

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/wiki-engine/internal/httputil"
	"github.com/pdiddy/wiki-engine/internal/index"
	"github.com/pdiddy/wiki-engine/internal/segment"
	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/internal/wikitext"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

// indexRetryDelay is the base backoff between index commit attempts.
// Tests override this to avoid real sleeps.
var indexRetryDelay = time.Second

const (
	defaultBatchSize    = 400
	defaultPersistEvery = 5
)

// Coordinator runs ingestion over the article cache.
type Coordinator struct {
	store    *store.Store
	index    index.Index
	splitter *segment.Splitter
	cfg      types.IngestConfig
	stateDir string
}

// NewCoordinator builds a Coordinator. stateDir is where the checkpoint and
// failure manifest live; keeping them beside the index ties recorded
// progress to the index it describes.
func NewCoordinator(st *store.Store, idx index.Index, sp *segment.Splitter, cfg types.IngestConfig, stateDir string) *Coordinator {
	return &Coordinator{store: st, index: idx, splitter: sp, cfg: cfg, stateDir: stateDir}
}

// Summary holds the outcome of an ingestion run.
type Summary struct {
	Articles int           // articles handled this run
	Chunks   int           // chunks committed this run
	Failed   int           // articles newly failed this run
	Skipped  int           // articles excluded by the checkpoint
	Elapsed  time.Duration
}

// HasFailures reports whether any articles failed this run.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

type job struct {
	seq   int
	names []string
}

type result struct {
	seq      int
	names    []string
	chunks   []types.Chunk
	failures map[string]string
}

// Run ingests every article not covered by the checkpoint (R1-R5).
// Workers own normalization and segmentation; all index writes, counters,
// and state files belong to this goroutine. On cancellation, dispatch
// stops, in-flight batches finish and commit, and the final checkpoint
// covers exactly the contiguous prefix of committed batches.
func (c *Coordinator) Run(ctx context.Context, w io.Writer) (Summary, error) {
	startTime := time.Now()

	names, err := c.store.ListArticles()
	if err != nil {
		return Summary{}, fmt.Errorf("enumerating articles: %w", err)
	}

	cp := Checkpoint{Version: checkpointVersion}
	failures := map[string]string{}

	if c.cfg.Resume {
		if cp, err = LoadCheckpoint(c.stateDir); err != nil {
			return Summary{}, err
		}
		if failures, err = ReadManifest(c.stateDir); err != nil {
			return Summary{}, err
		}
	} else {
		if err := c.index.Reset(ctx); err != nil {
			return Summary{}, fmt.Errorf("resetting index: %w", err)
		}
		if err := RemoveCheckpoint(c.stateDir); err != nil {
			return Summary{}, err
		}
		if err := removeManifest(c.stateDir); err != nil {
			return Summary{}, err
		}
	}

	skip := cp.ProcessedCount
	if skip > len(names) {
		skip = len(names)
	}
	pending := names[skip:]
	baseChunks := cp.TotalChunks
	priorFailures := len(failures)

	summary := Summary{Skipped: skip}
	if len(pending) == 0 {
		fmt.Fprintf(w, "nothing to ingest (%d articles already processed)\n", skip)
		summary.Elapsed = time.Since(startTime)
		return summary, nil
	}

	batches := batchNames(pending, c.batchSize())
	fmt.Fprintf(w, "ingesting %d articles in %d batches (%d workers)\n",
		len(pending), len(batches), c.workers())

	// Commits and state writes run to completion even when ctx is
	// cancelled, so the checkpoint only ever describes committed work.
	commitCtx := context.WithoutCancel(ctx)

	jobs := make(chan job)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < c.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				chunks, fails := c.processBatch(j.names)
				results <- result{seq: j.seq, names: j.names, chunks: chunks, failures: fails}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, b := range batches {
			select {
			case jobs <- job{seq: i, names: b}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	committed := make([]bool, len(batches))
	batchArticles := make([]int, len(batches))
	batchChunks := make([]int, len(batches))
	prefix, prefixArticles, prefixChunks := 0, 0, 0
	sinceFlush := 0
	dirtyManifest := false

	writeState := func() error {
		if err := c.index.Persist(commitCtx); err != nil {
			return fmt.Errorf("persisting index: %w", err)
		}
		next := Checkpoint{
			ProcessedCount: skip + prefixArticles,
			TotalChunks:    baseChunks + prefixChunks,
			FailedArticles: sortedTitles(failures),
		}
		if err := SaveCheckpoint(c.stateDir, next); err != nil {
			return err
		}
		if dirtyManifest {
			if err := writeManifest(c.stateDir, failures); err != nil {
				return err
			}
			dirtyManifest = false
		}
		return nil
	}

	for res := range results {
		for _, name := range sortedTitles(res.failures) {
			fmt.Fprintf(w, "failed:  %s (%s)\n", name, res.failures[name])
			failures[name] = res.failures[name]
			dirtyManifest = true
		}

		if err := c.commitBatch(commitCtx, res.chunks, w); err != nil {
			fmt.Fprintf(w, "dropping batch %d/%d (%d chunks): %v\n",
				res.seq+1, len(batches), len(res.chunks), err)
			for _, name := range res.names {
				if _, already := res.failures[name]; already {
					continue
				}
				failures[name] = fmt.Sprintf("index write: %v", err)
				dirtyManifest = true
			}
		} else {
			summary.Chunks += len(res.chunks)
			batchChunks[res.seq] = len(res.chunks)
			fmt.Fprintf(w, "batch %d/%d: %d articles, %d chunks\n",
				res.seq+1, len(batches), len(res.names), len(res.chunks))
		}

		summary.Articles += len(res.names)
		batchArticles[res.seq] = len(res.names)
		committed[res.seq] = true
		for prefix < len(batches) && committed[prefix] {
			prefixArticles += batchArticles[prefix]
			prefixChunks += batchChunks[prefix]
			prefix++
		}

		if dirtyManifest {
			if err := writeManifest(c.stateDir, failures); err != nil {
				fmt.Fprintf(w, "warning: failure manifest write failed: %v\n", err)
			} else {
				dirtyManifest = false
			}
		}

		sinceFlush++
		if sinceFlush >= c.persistEvery() {
			if err := writeState(); err != nil {
				fmt.Fprintf(w, "warning: checkpoint write failed: %v\n", err)
			}
			sinceFlush = 0
		}
	}

	if err := writeState(); err != nil {
		return summary, err
	}

	summary.Failed = len(failures) - priorFailures
	summary.Elapsed = time.Since(startTime)
	fmt.Fprintf(w, "\nIngest summary: %d articles, %d chunks, %d failed, %d skipped (%.1fs elapsed)\n",
		summary.Articles, summary.Chunks, summary.Failed, summary.Skipped, summary.Elapsed.Seconds())

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// processBatch normalizes and segments one batch inside a worker. Failures
// are isolated per article; the rest of the batch proceeds.
func (c *Coordinator) processBatch(names []string) ([]types.Chunk, map[string]string) {
	var chunks []types.Chunk
	failures := map[string]string{}
	for _, name := range names {
		title, content, err := c.loadArticle(name)
		if err != nil {
			failures[name] = err.Error()
			continue
		}
		chunks = append(chunks, c.splitter.Split(title, content)...)
	}
	return chunks, failures
}

// loadArticle returns an article's cleaned title and content, normalizing
// from the raw record and writing the cleaned cache entry when needed.
func (c *Coordinator) loadArticle(name string) (title, content string, err error) {
	if c.store.HasCleaned(name) {
		art, err := c.store.LoadCleaned(name)
		if err != nil {
			return "", "", fmt.Errorf("loading cleaned article: %w", err)
		}
		return art.Title, art.Content, nil
	}

	raw, err := c.store.LoadRaw(name)
	if err != nil {
		return "", "", fmt.Errorf("loading raw article: %w", err)
	}
	cleaned := types.CleanedArticle{
		Title:   raw.Title,
		Content: wikitext.Clean(raw.Wikitext),
	}
	if err := c.store.SaveCleaned(cleaned); err != nil {
		return "", "", fmt.Errorf("caching cleaned article: %w", err)
	}
	return cleaned.Title, cleaned.Content, nil
}

// commitBatch writes one batch of chunks to the index, retrying transient
// failures with exponential backoff up to the configured attempt budget.
func (c *Coordinator) commitBatch(ctx context.Context, chunks []types.Chunk, w io.Writer) error {
	if len(chunks) == 0 {
		return nil
	}

	retries := c.cfg.IndexRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(w, "index write failed (attempt %d/%d), backing off: %v\n",
				attempt, retries+1, lastErr)
			if err := httputil.Wait(ctx, httputil.Backoff(indexRetryDelay, attempt-1)); err != nil {
				return err
			}
		}
		if err := c.index.AddBatch(ctx, chunks); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (c *Coordinator) workers() int {
	if c.cfg.Workers > 0 {
		return c.cfg.Workers
	}
	return runtime.NumCPU()
}

func (c *Coordinator) batchSize() int {
	if c.cfg.BatchSize > 0 {
		return c.cfg.BatchSize
	}
	return defaultBatchSize
}

func (c *Coordinator) persistEvery() int {
	if c.cfg.PersistEvery > 0 {
		return c.cfg.PersistEvery
	}
	return defaultPersistEvery
}

func batchNames(names []string, size int) [][]string {
	var batches [][]string
	for len(names) > size {
		batches = append(batches, names[:size])
		names = names[size:]
	}
	if len(names) > 0 {
		batches = append(batches, names)
	}
	return batches
}

func sortedTitles(m map[string]string) []string {
	titles := make([]string, 0, len(m))
	for t := range m {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}
