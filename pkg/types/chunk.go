// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Chunk is a bounded-length slice of cleaned article text, the unit stored
// in the vector index. Per prd003-segment R3.1-R3.3: every chunk carries
// provenance metadata linking it back to the article that produced it.
type Chunk struct {
	// ID uniquely identifies the chunk across all runs. It is the parent
	// article UUID joined with the chunk's ordinal within the article
	// (e.g. "4f1c...-0003"), so ids never collide between resumed runs.
	ID string `json:"id" yaml:"id"`

	// Text is the chunk content, at most the configured maximum length.
	Text string `json:"text" yaml:"text"`

	// Title is the source article title.
	Title string `json:"title" yaml:"title"`

	// SourceURL is the public page URL derived from the title.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// ArticlePath is the article's record name within the cache, for diagnostics.
	ArticlePath string `json:"article_path" yaml:"article_path"`

	// ArticleLength is the total character count of the cleaned article.
	ArticleLength int `json:"article_length" yaml:"article_length"`

	// ParentID is the UUID minted for the article when it entered segmentation.
	ParentID string `json:"parent_id" yaml:"parent_id"`
}
