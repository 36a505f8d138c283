package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "wiki-engine/0.1 (contact@example.com)"). Per prd001-scrape R5.2,
	// wiki API etiquette requires a descriptive User-Agent with contact info.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for the content source client.
// Per prd001-scrape R2.2, R3.1-R3.4, R4.1.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageLimit is the number of titles requested per enumeration page
	// (aplimit, default 500, the anonymous-client maximum).
	PageLimit int `json:"page_limit" yaml:"page_limit"`

	// BatchSize is the number of titles fetched per content request (default 50).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RequestDelay is the minimum interval enforced between consecutive API
	// requests, regardless of outcome (default 500ms).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRetries is the retry ceiling for transient failures: HTTP 429/5xx
	// and maxlag/ratelimited/readonly API errors (default 4).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBackoff is the base delay for exponential backoff between retries,
	// used when the server does not suggest a Retry-After interval (default 5s).
	RetryBackoff time.Duration `json:"retry_backoff" yaml:"retry_backoff"`

	// MaxLag is the maxlag threshold in seconds sent with content requests.
	// The server answers with a retryable error when replication lag exceeds
	// it, signalling the client to back off (default 5).
	MaxLag int `json:"max_lag" yaml:"max_lag"`
}

// SegmentConfig holds settings for the text segmenter.
// Per prd003-segment R1.1-R1.3.
type SegmentConfig struct {
	// MaxChunkLen is the chunk length ceiling in characters (default 1000).
	MaxChunkLen int `json:"max_chunk_len" yaml:"max_chunk_len"`

	// Overlap is the number of characters consecutive chunks share (default 150).
	// Must be smaller than MaxChunkLen; invalid values are clamped to 15% of
	// MaxChunkLen.
	Overlap int `json:"overlap" yaml:"overlap"`

	// SourceBase is the page URL prefix used to derive each chunk's source
	// locator from its article title (default "https://oldschool.runescape.wiki/w/").
	SourceBase string `json:"source_base" yaml:"source_base"`
}

// IndexConfig holds settings for the vector index.
// Per prd005-index R1.1, R4.1-R4.3.
type IndexConfig struct {
	// Dir is the directory holding the index database, the ingestion
	// checkpoint, and the failure manifest (default "index").
	Dir string `json:"dir" yaml:"dir"`

	// Embed enables embedding computation through the Ollama API. When false,
	// chunks are stored without embeddings.
	Embed bool `json:"embed" yaml:"embed"`

	// EmbedModel is the Ollama embedding model (default "nomic-embed-text").
	EmbedModel string `json:"embed_model" yaml:"embed_model"`
}

// IngestConfig holds settings for the ingestion coordinator.
// Per prd004-ingest R1.2, R2.1-R2.3, R3.2.
type IngestConfig struct {
	// ArticlesDir is the base directory of the article cache (contains raw/, clean/).
	ArticlesDir string `json:"articles_dir" yaml:"articles_dir"`

	// Workers is the number of concurrent normalize+segment workers
	// (default: available CPUs).
	Workers int `json:"workers" yaml:"workers"`

	// BatchSize is the number of articles per work batch (default 400).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// PersistEvery is the number of completed batches between checkpoint
	// writes and index flushes (default 5).
	PersistEvery int `json:"persist_every" yaml:"persist_every"`

	// IndexRetries is the retry ceiling for a failed index batch write (default 2).
	IndexRetries int `json:"index_retries" yaml:"index_retries"`

	// Resume continues from the last checkpoint instead of resetting the index.
	Resume bool `json:"resume" yaml:"resume"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Source  SourceConfig  `json:"source" yaml:"source"`
	Segment SegmentConfig `json:"segment" yaml:"segment"`
	Index   IndexConfig   `json:"index" yaml:"index"`
	Ingest  IngestConfig  `json:"ingest" yaml:"ingest"`
}
