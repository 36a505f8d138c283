// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/wiki-engine/internal/httputil"
)

func TestOllamaEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %s, want /api/embeddings", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model = %q, want default model", req.Model)
		}
		if req.Prompt != "The abyssal whip." {
			t.Errorf("prompt = %q", req.Prompt)
		}

		fmt.Fprint(w, `{"embedding":[0.125,-0.5,2.0]}`)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.Client(), srv.URL, "")
	vec, err := e.Embed(context.Background(), "The abyssal whip.")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	want := []float64{0.125, -0.5, 2.0}
	if len(vec) != len(want) {
		t.Fatalf("got %d floats, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec[%d] = %g, want %g", i, vec[i], want[i])
		}
	}
}

func TestOllamaEmbedRetriesRateLimit(t *testing.T) {
	oldDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = oldDelay }()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		// The retried request must carry the body again.
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding retried request: %v", err)
		}
		if req.Prompt != "hello" {
			t.Errorf("retried prompt = %q, want hello", req.Prompt)
		}
		fmt.Fprint(w, `{"embedding":[1]}`)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.Client(), srv.URL, "custom-model")
	if _, err := e.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if calls != 2 {
		t.Errorf("server calls = %d, want 2", calls)
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.Client(), srv.URL, "")
	_, err := e.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 500") || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error = %v, want status and body detail", err)
	}
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding":[]}`)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.Client(), srv.URL, "")
	_, err := e.Embed(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "empty embedding") {
		t.Fatalf("error = %v, want empty-embedding failure", err)
	}
}
