// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mediawiki

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

func TestScrapeSavesAndSkips(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"query":{"pages":{"1":{"title":"Abyssal whip","revisions":[{"*":"A whip."}]},"2":{"title":"Adamant bar","revisions":[{"*":"A bar."}]}}}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, types.SourceConfig{})
	st := store.New(t.TempDir())
	if err := st.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	titles := []string{"Abyssal whip", "Adamant bar"}

	var buf bytes.Buffer
	result, err := Scrape(context.Background(), client, st, titles, false, &buf)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if result.Fetched != 2 || result.Skipped != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want 2 fetched", result)
	}
	for _, title := range titles {
		if !st.HasRaw(title) {
			t.Errorf("raw article %q not saved", title)
		}
	}

	// A second run finds everything on disk and stays offline.
	buf.Reset()
	result, err = Scrape(context.Background(), client, st, titles, false, &buf)
	if err != nil {
		t.Fatalf("Scrape (rerun): %v", err)
	}
	if result.Skipped != 2 || result.Fetched != 0 {
		t.Errorf("rerun result = %+v, want 2 skipped", result)
	}
	if calls != 1 {
		t.Errorf("server calls = %d, want 1 (rerun must not refetch)", calls)
	}
	if !strings.Contains(buf.String(), "skipped 2 titles") {
		t.Errorf("rerun output = %q, want skip notice", buf.String())
	}
}

func TestScrapeRefetchOverwrites(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"parse":{"title":"Abyssal whip","wikitext":{"*":"revision %d"}}}`, calls)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, types.SourceConfig{})
	st := store.New(t.TempDir())
	if err := st.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	for i := 0; i < 2; i++ {
		if _, err := Scrape(context.Background(), client, st, []string{"Abyssal whip"}, true, &buf); err != nil {
			t.Fatalf("Scrape: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("server calls = %d, want 2", calls)
	}

	art, err := st.LoadRaw("Abyssal whip")
	if err != nil {
		t.Fatal(err)
	}
	if art.Wikitext != "revision 2" {
		t.Errorf("wikitext = %q, want latest revision", art.Wikitext)
	}
}

// TestScrapeBatchFaultIsolation drives two batches where the second hits a
// persistent server fault. The first batch's outcome must survive and the
// failure must be confined to the second batch's titles.
func TestScrapeBatchFaultIsolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles := r.URL.Query().Get("titles")
		if strings.Contains(titles, "Cabbage") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"query":{"pages":{"1":{"title":"Abyssal whip","revisions":[{"*":"A whip."}]},"-1":{"title":"Bent sword","missing":""}}}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, types.SourceConfig{BatchSize: 2, MaxRetries: 2})
	st := store.New(t.TempDir())
	if err := st.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	titles := []string{"Abyssal whip", "Bent sword", "Cabbage", "Dragon axe"}

	var buf bytes.Buffer
	result, err := Scrape(context.Background(), client, st, titles, false, &buf)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if result.Fetched != 1 || result.Missing != 1 || result.Failed != 2 {
		t.Errorf("result = %+v, want 1 fetched, 1 missing, 2 failed", result)
	}
	if result.Total() != 4 {
		t.Errorf("Total() = %d, want 4", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
	if !st.HasRaw("Abyssal whip") {
		t.Error("first batch's article missing from store")
	}
	if st.HasRaw("Cabbage") {
		t.Error("failed title must not be saved")
	}

	out := buf.String()
	if !strings.Contains(out, "missing: Bent sword") {
		t.Errorf("output = %q, want missing notice", out)
	}
	if !strings.Contains(out, "failed:  Cabbage") {
		t.Errorf("output = %q, want failure notice", out)
	}
	if !strings.Contains(out, "1 fetched, 0 skipped, 1 missing, 2 failed (total: 4)") {
		t.Errorf("output = %q, want summary line", out)
	}
}

func TestScrapeCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":{"pages":{}}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, types.SourceConfig{})
	st := store.New(t.TempDir())
	if err := st.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := Scrape(ctx, client, st, []string{"Abyssal whip", "Adamant bar"}, false, &buf)
	if err != context.Canceled {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestBatchTitles(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{"empty", 0, 50, nil},
		{"single partial", 3, 50, []int{3}},
		{"exact multiple", 100, 50, []int{50, 50}},
		{"remainder", 101, 50, []int{50, 50, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			titles := make([]string, tt.n)
			for i := range titles {
				titles[i] = fmt.Sprintf("Page %d", i)
			}
			batches := batchTitles(titles, tt.size)
			if len(batches) != len(tt.want) {
				t.Fatalf("got %d batches, want %d", len(batches), len(tt.want))
			}
			total := 0
			for i, b := range batches {
				if len(b) != tt.want[i] {
					t.Errorf("batch %d has %d titles, want %d", i, len(b), tt.want[i])
				}
				total += len(b)
			}
			if total != tt.n {
				t.Errorf("batches cover %d titles, want %d", total, tt.n)
			}
		})
	}
}
