// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wiki-engine/internal/index"
	"github.com/pdiddy/wiki-engine/internal/ingest"
	"github.com/pdiddy/wiki-engine/internal/segment"
	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

const defaultEmbedTimeout = 60 * time.Second

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Segment cached articles and build the index",
	Long: `Ingest runs the article-to-index stage of the pipeline: cached articles
are normalized (when no cleaned record exists yet), segmented into
overlapping chunks, and written to the SQLite index in batches. Progress
is checkpointed alongside the index, so an interrupted run restarted with
--resume picks up after the last committed batch. Without --resume the
index is rebuilt from scratch.

With --embed, every chunk is sent to an Ollama instance for an embedding
vector before indexing.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("articles-dir", "articles", "base directory for the article cache")
	ingestCmd.Flags().String("index-dir", "index", "directory for the index database and checkpoint")
	ingestCmd.Flags().Bool("resume", false, "resume from the last checkpoint instead of rebuilding")
	ingestCmd.Flags().Int("workers", 0, "concurrent segmentation workers (0 = all CPUs)")
	ingestCmd.Flags().Int("batch-size", 400, "articles per work batch")
	ingestCmd.Flags().Int("persist-every", 5, "completed batches between checkpoint writes")
	ingestCmd.Flags().Int("index-retries", 2, "retries for a failed index batch write")
	ingestCmd.Flags().Int("max-chunk-len", 1000, "chunk length ceiling in characters")
	ingestCmd.Flags().Int("overlap", 150, "characters shared between consecutive chunks")
	ingestCmd.Flags().String("source-base", "", "page URL prefix for chunk source locators")
	ingestCmd.Flags().Bool("embed", false, "compute embeddings through the Ollama API")
	ingestCmd.Flags().String("embed-model", "", "Ollama embedding model (default nomic-embed-text)")
	ingestCmd.Flags().String("ollama-url", "", "Ollama base URL (default http://localhost:11434)")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	articlesDir := flagString(cmd, "articles-dir", "ingest.articles_dir")
	st := store.New(articlesDir)
	if err := st.EnsureDirs(); err != nil {
		return err
	}

	indexDir := flagString(cmd, "index-dir", "index.dir")
	idx, err := index.NewSQLiteIndex(types.IndexConfig{Dir: indexDir})
	if err != nil {
		return err
	}
	defer idx.Close()

	if flagBool(cmd, "embed", "index.embed") {
		base := secretDefault("ollama-url", flagString(cmd, "ollama-url", "index.ollama_url"))
		model := flagString(cmd, "embed-model", "index.embed_model")
		embedder := index.NewOllamaEmbedder(&http.Client{Timeout: defaultEmbedTimeout}, base, model)
		idx = idx.WithEmbedder(embedder)
	}

	segCfg := types.SegmentConfig{
		MaxChunkLen: flagInt(cmd, "max-chunk-len", "segment.max_chunk_len"),
		Overlap:     flagInt(cmd, "overlap", "segment.overlap"),
		SourceBase:  flagString(cmd, "source-base", "segment.source_base"),
	}
	splitter := segment.New(segCfg, os.Stdout)

	cfg := types.IngestConfig{
		ArticlesDir:  articlesDir,
		Workers:      flagInt(cmd, "workers", "ingest.workers"),
		BatchSize:    flagInt(cmd, "batch-size", "ingest.batch_size"),
		PersistEvery: flagInt(cmd, "persist-every", "ingest.persist_every"),
		IndexRetries: flagInt(cmd, "index-retries", "ingest.index_retries"),
		Resume:       flagBool(cmd, "resume", "ingest.resume"),
	}

	coordinator := ingest.NewCoordinator(st, idx, splitter, cfg, indexDir)
	summary, err := coordinator.Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d article(s) failed ingestion", summary.Failed)
	}
	return nil
}
