// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists raw and cleaned wiki articles on disk.
// Implements: prd001-scrape (R5), prd002-cleanup (R5);
//
//	docs/ARCHITECTURE § Article Cache.
//
// Each article is one JSON record named after a filesystem-safe encoding of
// its title. Records are written atomically (temp file, then rename) so a
// crash never leaves a partially written article behind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/wiki-engine/pkg/types"
)

const (
	// RawDir is the subdirectory for raw wikitext records.
	RawDir = "raw"
	// CleanDir is the subdirectory for cleaned article records.
	CleanDir = "clean"
)

// titleSanitizer replaces characters that are unsafe in filenames.
var titleSanitizer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// SafeTitle returns a filesystem-safe record name for a page title.
// The mapping is not injective ("A/B" and "A:B" collide), which matches the
// wiki's own practice of avoiding such near-duplicate titles.
func SafeTitle(title string) string {
	return strings.TrimSpace(titleSanitizer.Replace(title))
}

// Store is an article cache rooted at Dir, with raw/ and clean/ subdirectories.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir. Call EnsureDirs before writing.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// EnsureDirs creates the raw/ and clean/ subdirectories.
func (s *Store) EnsureDirs() error {
	for _, sub := range []string{RawDir, CleanDir} {
		if err := os.MkdirAll(filepath.Join(s.Dir, sub), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", sub, err)
		}
	}
	return nil
}

// SaveRaw writes a raw article record, replacing any existing one.
func (s *Store) SaveRaw(a types.RawArticle) error {
	return writeJSON(s.path(RawDir, a.Title), a)
}

// LoadRaw reads the raw article record for title. The title may be either
// the original page title or a record name returned by ListRaw.
func (s *Store) LoadRaw(title string) (types.RawArticle, error) {
	var a types.RawArticle
	err := readJSON(s.path(RawDir, title), &a)
	return a, err
}

// HasRaw reports whether a raw record exists for title.
func (s *Store) HasRaw(title string) bool {
	_, err := os.Stat(s.path(RawDir, title))
	return err == nil
}

// ListRaw returns the sorted record names of all raw articles.
func (s *Store) ListRaw() ([]string, error) {
	return listRecords(filepath.Join(s.Dir, RawDir))
}

// SaveCleaned writes a cleaned article record, replacing any existing one.
func (s *Store) SaveCleaned(a types.CleanedArticle) error {
	return writeJSON(s.path(CleanDir, a.Title), a)
}

// LoadCleaned reads the cleaned article record for title.
func (s *Store) LoadCleaned(title string) (types.CleanedArticle, error) {
	var a types.CleanedArticle
	err := readJSON(s.path(CleanDir, title), &a)
	return a, err
}

// HasCleaned reports whether a cleaned record exists for title.
func (s *Store) HasCleaned(title string) bool {
	_, err := os.Stat(s.path(CleanDir, title))
	return err == nil
}

// ListCleaned returns the sorted record names of all cleaned articles.
func (s *Store) ListCleaned() ([]string, error) {
	return listRecords(filepath.Join(s.Dir, CleanDir))
}

// ListArticles returns the sorted union of raw and cleaned record names.
// This is the ingestion input: articles cleaned ahead of time and articles
// still awaiting normalization both appear exactly once.
func (s *Store) ListArticles() ([]string, error) {
	raw, err := s.ListRaw()
	if err != nil {
		return nil, err
	}
	clean, err := s.ListCleaned()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw)+len(clean))
	for _, n := range raw {
		seen[n] = true
		names = append(names, n)
	}
	for _, n := range clean {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) path(sub, title string) string {
	return filepath.Join(s.Dir, sub, SafeTitle(title)+".json")
}

// listRecords returns the sorted ".json" file stems in dir. A missing
// directory is treated as empty.
func listRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// writeJSON marshals v and writes it to path via a temporary file in the
// same directory, renamed into place on success.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing record: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing record %s: %w", filepath.Base(path), err)
	}
	return nil
}
