// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pdiddy/wiki-engine/pkg/types"
)

func TestSafeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "Dragon dagger", "Dragon dagger"},
		{"slash", "Falador/Guide", "Falador_Guide"},
		{"colon", "Category:Items", "Category_Items"},
		{"question mark", "What lies below?", "What lies below_"},
		{"quotes and pipes", `"Rum"|deal`, "_Rum__deal"},
		{"backslash and asterisk", `a\b*c`, "a_b_c"},
		{"angle brackets", "<title>", "_title_"},
		{"trailing space trimmed", "Varrock ", "Varrock"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeTitle(tt.title); got != tt.want {
				t.Errorf("SafeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	if err := s.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveLoadRaw(t *testing.T) {
	s := newTestStore(t)

	a := types.RawArticle{Title: "Dragon dagger", Wikitext: "{{Infobox}}A dagger."}
	if err := s.SaveRaw(a); err != nil {
		t.Fatalf("SaveRaw() error = %v", err)
	}

	if !s.HasRaw("Dragon dagger") {
		t.Error("HasRaw() = false after SaveRaw")
	}

	got, err := s.LoadRaw("Dragon dagger")
	if err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}
	if got != a {
		t.Errorf("LoadRaw() = %+v, want %+v", got, a)
	}

	// Loading by the sanitized record name works the same way.
	got, err = s.LoadRaw(SafeTitle("Dragon dagger"))
	if err != nil {
		t.Fatalf("LoadRaw(record name) error = %v", err)
	}
	if got.Title != a.Title {
		t.Errorf("LoadRaw(record name).Title = %q, want %q", got.Title, a.Title)
	}
}

func TestSaveLoadCleaned(t *testing.T) {
	s := newTestStore(t)

	a := types.CleanedArticle{Title: "Varrock/History", Content: "A city."}
	if err := s.SaveCleaned(a); err != nil {
		t.Fatalf("SaveCleaned() error = %v", err)
	}
	if !s.HasCleaned("Varrock/History") {
		t.Error("HasCleaned() = false after SaveCleaned")
	}

	got, err := s.LoadCleaned("Varrock/History")
	if err != nil {
		t.Fatalf("LoadCleaned() error = %v", err)
	}
	if got != a {
		t.Errorf("LoadCleaned() = %+v, want %+v", got, a)
	}

	// The record on disk uses the sanitized name.
	path := filepath.Join(s.Dir, CleanDir, "Varrock_History.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected record at %s: %v", path, err)
	}
}

func TestSaveRawOverwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveRaw(types.RawArticle{Title: "Abyss", Wikitext: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRaw(types.RawArticle{Title: "Abyss", Wikitext: "new"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadRaw("Abyss")
	if err != nil {
		t.Fatal(err)
	}
	if got.Wikitext != "new" {
		t.Errorf("Wikitext = %q, want %q", got.Wikitext, "new")
	}

	// No temp files should be left behind.
	entries, err := os.ReadDir(filepath.Join(s.Dir, RawDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("raw dir has %d entries, want 1", len(entries))
	}
}

func TestListRawSorted(t *testing.T) {
	s := newTestStore(t)

	for _, title := range []string{"Zulrah", "Abyss", "Magic"} {
		if err := s.SaveRaw(types.RawArticle{Title: title, Wikitext: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListRaw()
	if err != nil {
		t.Fatalf("ListRaw() error = %v", err)
	}
	want := []string{"Abyss", "Magic", "Zulrah"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListRaw() = %v, want %v", got, want)
	}
}

func TestListArticlesUnion(t *testing.T) {
	s := newTestStore(t)

	// "Abyss" exists in both, "Magic" only raw, "Zulrah" only cleaned.
	if err := s.SaveRaw(types.RawArticle{Title: "Abyss", Wikitext: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRaw(types.RawArticle{Title: "Magic", Wikitext: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCleaned(types.CleanedArticle{Title: "Abyss", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCleaned(types.CleanedArticle{Title: "Zulrah", Content: "x"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListArticles()
	if err != nil {
		t.Fatalf("ListArticles() error = %v", err)
	}
	want := []string{"Abyss", "Magic", "Zulrah"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListArticles() = %v, want %v", got, want)
	}
}

func TestListMissingDirIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"))

	got, err := s.ListRaw()
	if err != nil {
		t.Fatalf("ListRaw() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListRaw() = %v, want empty", got)
	}
}

func TestLoadRawMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadRaw("Nonexistent"); !os.IsNotExist(err) {
		t.Errorf("LoadRaw(missing) error = %v, want not-exist", err)
	}
}
