// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/wiki-engine/internal/httputil"
)

// DefaultOllamaURL is the local Ollama endpoint. Declared as a var so
// tests can substitute an httptest server.
var DefaultOllamaURL = "http://localhost:11434"

const defaultEmbedModel = "nomic-embed-text"

// Embedder turns chunk text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OllamaEmbedder computes embeddings through a local Ollama server (R4.1).
type OllamaEmbedder struct {
	http  *http.Client
	base  string
	model string
}

// NewOllamaEmbedder builds an embedder for the given endpoint and model.
// Empty arguments fall back to DefaultOllamaURL and nomic-embed-text.
func NewOllamaEmbedder(client *http.Client, base, model string) *OllamaEmbedder {
	if base == "" {
		base = DefaultOllamaURL
	}
	if model == "" {
		model = defaultEmbedModel
	}
	return &OllamaEmbedder{http: client, base: base, model: model}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests an embedding for text. Rate-limited responses are retried
// by the shared helper; other failures surface to the caller, which treats
// them like index-write errors.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.base+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, e.http, req, 3)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing embeddings response: %w", err)
	}
	if len(er.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding for model %q", e.model)
	}
	return er.Embedding, nil
}
