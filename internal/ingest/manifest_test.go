package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	in := map[string]string{
		"Bent sword":   "loading raw article: unexpected end of JSON input",
		"Abyssal whip": "index write: disk I/O error",
	}
	if err := writeManifest(dir, in); err != nil {
		t.Fatalf("writeManifest() error = %v", err)
	}

	out, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d entries, want 2", len(out))
	}
	// Reasons may themselves contain ": "; only the first separator splits.
	if out["Bent sword"] != "loading raw article: unexpected end of JSON input" {
		t.Errorf("reason = %q", out["Bent sword"])
	}
	if out["Abyssal whip"] != "index write: disk I/O error" {
		t.Errorf("reason = %q", out["Abyssal whip"])
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Abyssal whip: ") {
		t.Errorf("manifest lines not sorted by title: %q", lines)
	}
}

func TestReadManifestMissing(t *testing.T) {
	out, err := ReadManifest(t.TempDir())
	if err != nil {
		t.Fatalf("ReadManifest() on empty dir error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d entries, want none", len(out))
	}
}

func TestRemoveManifest(t *testing.T) {
	dir := t.TempDir()

	if err := removeManifest(dir); err != nil {
		t.Fatalf("removeManifest() on missing file error = %v", err)
	}

	if err := writeManifest(dir, map[string]string{"Cabbage": "gone"}); err != nil {
		t.Fatal(err)
	}
	if err := removeManifest(dir); err != nil {
		t.Fatalf("removeManifest() error = %v", err)
	}

	out, err := ReadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("manifest survived removal: %v", out)
	}
}
