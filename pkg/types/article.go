// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RawArticle holds a wiki page exactly as returned by the content source.
// Per prd001-scrape R5.3: persisted to the article cache keyed by a
// filesystem-safe encoding of the title; immutable once fetched.
type RawArticle struct {
	// Title is the canonical page title, unique within the wiki.
	Title string `json:"title" yaml:"title"`

	// Wikitext is the raw markup of the latest revision.
	Wikitext string `json:"wikitext" yaml:"wikitext"`
}

// CleanedArticle holds the plain-prose form of a wiki page.
// Derived deterministically from a RawArticle: the same wikitext always
// produces the same content.
type CleanedArticle struct {
	// Title is the canonical page title, copied from the raw article.
	Title string `json:"title" yaml:"title"`

	// Content is the normalized article text with all markup removed.
	Content string `json:"content" yaml:"content"`
}
