// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits cleaned articles into overlapping chunks sized
// for embedding.
// Implements: prd003-segment (R1-R3);
//
//	docs/ARCHITECTURE § Segmentation.
package segment

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

const (
	defaultMaxChunkLen = 1000

	defaultSourceBase = "https://oldschool.runescape.wiki/w/"
)

// separators in priority order. The splitter prefers cutting at the
// largest textual boundary available inside the window; the empty string
// is a hard cut at the window edge.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// urlTitle maps a page title to its path segment in a wiki URL.
var urlTitle = strings.NewReplacer(" ", "_", "/", "_")

// Splitter produces overlapping chunks of at most maxLen runes, with
// consecutive chunks sharing up to overlap runes of trailing context.
type Splitter struct {
	maxLen  int
	overlap int
	base    string
}

// New validates the configuration and returns a Splitter. An overlap that
// is negative or not smaller than the chunk length is clamped to 15% of
// the chunk length; the adjustment is logged to w.
func New(cfg types.SegmentConfig, w io.Writer) *Splitter {
	maxLen := cfg.MaxChunkLen
	if maxLen <= 0 {
		maxLen = defaultMaxChunkLen
	}
	overlap := cfg.Overlap
	if overlap < 0 || overlap >= maxLen {
		clamped := maxLen * 15 / 100
		fmt.Fprintf(w, "overlap %d invalid for chunk length %d, using %d\n",
			overlap, maxLen, clamped)
		overlap = clamped
	}
	base := cfg.SourceBase
	if base == "" {
		base = defaultSourceBase
	}
	return &Splitter{maxLen: maxLen, overlap: overlap, base: base}
}

// Split segments one article's cleaned content into chunks. Empty content
// yields no chunks; the title travels in chunk metadata, never in chunk
// text. Every call mints a fresh parent id, so chunk ids from different
// runs never collide.
func (s *Splitter) Split(title, content string) []types.Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	parentID := uuid.NewString()
	runes := []rune(content)

	var chunks []types.Chunk
	emit := func(text string) {
		chunks = append(chunks, types.Chunk{
			ID:            fmt.Sprintf("%s-%04d", parentID, len(chunks)),
			Text:          text,
			Title:         title,
			SourceURL:     s.base + urlTitle.Replace(title),
			ArticlePath:   filepath.Join(store.CleanDir, store.SafeTitle(title)+".json"),
			ArticleLength: len(runes),
			ParentID:      parentID,
		})
	}

	start := 0
	for start < len(runes) {
		if len(runes)-start <= s.maxLen {
			emit(string(runes[start:]))
			break
		}

		cut := s.cutAt(runes, start, start+s.maxLen)
		emit(string(runes[start:cut]))

		// Step back to carry overlap into the next chunk, but always
		// move forward past pathological cut points.
		next := cut - s.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// cutAt picks the end of the chunk starting at start, considering the
// window runes[start:end]. The highest-priority separator with an
// occurrence inside the window wins, cutting just after its last
// occurrence. Without any separator the window edge is the cut.
func (s *Splitter) cutAt(runes []rune, start, end int) int {
	for _, sep := range separators {
		if sep == "" {
			break
		}
		sepRunes := []rune(sep)
		for i := end - len(sepRunes); i > start; i-- {
			if matchAt(runes, i, sepRunes) {
				return i + len(sepRunes)
			}
		}
	}
	return end
}

func matchAt(runes []rune, i int, sep []rune) bool {
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}
