package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const manifestFile = "failed_articles.txt"

// ReadManifest loads the failure manifest from dir as a title-to-reason
// map. A missing file means no recorded failures.
func ReadManifest(dir string) (map[string]string, error) {
	f, err := os.Open(filepath.Join(dir, manifestFile))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening failure manifest: %w", err)
	}
	defer f.Close()

	failures := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		title, reason, found := strings.Cut(line, ": ")
		if !found {
			title, reason = line, ""
		}
		failures[title] = reason
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading failure manifest: %w", err)
	}
	return failures, nil
}

// writeManifest writes one "title: reason" line per failure, sorted by
// title so reruns produce stable diffs.
func writeManifest(dir string, failures map[string]string) error {
	titles := make([]string, 0, len(failures))
	for t := range failures {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	var b strings.Builder
	for _, t := range titles {
		fmt.Fprintf(&b, "%s: %s\n", t, failures[t])
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), []byte(b.String()), 0o644)
}

// removeManifest deletes the manifest if present.
func removeManifest(dir string) error {
	err := os.Remove(filepath.Join(dir, manifestFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing failure manifest: %w", err)
	}
	return nil
}
