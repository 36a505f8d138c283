// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mediawiki talks to a MediaWiki Action API: paginated title
// enumeration, batched wikitext fetch, and rate-limit-aware retry.
// Implements: prd001-scrape (R1-R4);
//
//	docs/ARCHITECTURE § Content Source.
//
// The client issues requests sequentially with an enforced minimum delay
// between them, and honors the API's cooperative load-shedding protocol:
// every content request carries a maxlag threshold, and maxlag/ratelimited
// responses are retried after the server-suggested interval.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/wiki-engine/internal/httputil"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

// BaseURL is the Action API endpoint. Declared as a var so tests can
// substitute an httptest server.
var BaseURL = "https://oldschool.runescape.wiki/api.php"

const (
	defaultUserAgent    = "wiki-engine/0.1"
	defaultPageLimit    = 500 // anonymous-client maximum for list=allpages
	defaultBatchSize    = 50  // anonymous-client maximum for titles=
	defaultRequestDelay = 500 * time.Millisecond
	defaultMaxRetries   = 4
	defaultRetryBackoff = 5 * time.Second
	defaultMaxLag       = 5
)

// APIError is an application-level error returned in an API response body.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: %s: %s", e.Code, e.Info)
}

// Retryable reports whether the error signals transient server overload
// per the cooperative protocol (R3.2). All other codes are permanent.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case "maxlag", "ratelimited", "readonly":
		return true
	}
	return false
}

// Client fetches titles and wikitext from the Action API.
type Client struct {
	http    *http.Client
	cfg     types.SourceConfig
	limiter *rate.Limiter
}

// NewClient builds a Client for the configured source. Zero config fields
// fall back to the package defaults.
func NewClient(client *http.Client, cfg types.SourceConfig) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.PageLimit <= 0 || cfg.PageLimit > defaultPageLimit {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > defaultBatchSize {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = defaultRequestDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.MaxLag <= 0 {
		cfg.MaxLag = defaultMaxLag
	}
	return &Client{
		http:    client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
	}
}

// BatchSize returns the effective titles-per-request limit.
func (c *Client) BatchSize() int {
	return c.cfg.BatchSize
}

// API response envelope. The Action API returns exactly one of error,
// query, or parse, modeled here as optional branches with exhaustive
// handling at each call site.
type apiResponse struct {
	Error    *apiErrorBody `json:"error"`
	Continue *apiContinue  `json:"continue"`
	Query    *queryResult  `json:"query"`
	Parse    *parseResult  `json:"parse"`
}

type apiErrorBody struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type apiContinue struct {
	APContinue string `json:"apcontinue"`
}

type queryResult struct {
	AllPages []allPagesEntry     `json:"allpages"`
	Pages    map[string]pageData `json:"pages"`
}

type allPagesEntry struct {
	Title string `json:"title"`
}

// pageData is one entry in a prop=revisions response. Missing pages carry
// a "missing" marker (empty string) instead of revisions.
type pageData struct {
	Title     string     `json:"title"`
	Missing   *string    `json:"missing"`
	Revisions []revision `json:"revisions"`
}

type revision struct {
	Content string `json:"*"`
}

type parseResult struct {
	Title    string       `json:"title"`
	Wikitext wikitextBody `json:"wikitext"`
}

type wikitextBody struct {
	Content string `json:"*"`
}

// do issues one API request, retrying transient failures (HTTP 429/5xx,
// transport errors, and retryable API error codes) up to the configured
// ceiling. The politeness limiter is consulted before every attempt,
// including retries. A server-suggested Retry-After interval takes
// precedence over the computed exponential backoff.
func (c *Client) do(ctx context.Context, params url.Values) (*apiResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := httputil.Backoff(c.cfg.RetryBackoff, attempt-1)
			if suggested, ok := retryAfterOf(lastErr); ok {
				wait = suggested
			}
			if err := httputil.Wait(ctx, wait); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.request(ctx, params)
		switch {
		case err == nil:
			return resp, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case isTransient(err):
			lastErr = err
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// request performs a single HTTP round trip and decodes the response.
func (c *Client) request(ctx context.Context, params url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		herr := &httpError{status: resp.StatusCode}
		if d, ok := httputil.RetryAfter(resp); ok {
			herr.retryAfter = d
		}
		io.Copy(io.Discard, resp.Body)
		return nil, herr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned HTTP %d", resp.StatusCode)
	}

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("parsing API response: %w", err)
	}

	if ar.Error != nil {
		apiErr := &APIError{Code: ar.Error.Code, Info: ar.Error.Info}
		if apiErr.Retryable() {
			// Maxlag responses carry a Retry-After header with the
			// server's suggested wait.
			if d, ok := httputil.RetryAfter(resp); ok {
				return nil, &laggedError{apiErr: apiErr, retryAfter: d}
			}
		}
		return nil, apiErr
	}

	return &ar, nil
}

// transportError wraps a network-level failure (timeout, refused connection).
type transportError struct {
	err error
}

func (e *transportError) Error() string { return fmt.Sprintf("HTTP request: %v", e.err) }
func (e *transportError) Unwrap() error { return e.err }

// httpError is a retryable HTTP status (429 or 5xx).
type httpError struct {
	status     int
	retryAfter time.Duration
}

func (e *httpError) Error() string { return fmt.Sprintf("API returned HTTP %d", e.status) }

// laggedError is a retryable API error paired with the server's suggested wait.
type laggedError struct {
	apiErr     *APIError
	retryAfter time.Duration
}

func (e *laggedError) Error() string { return e.apiErr.Error() }
func (e *laggedError) Unwrap() error { return e.apiErr }

func isTransient(err error) bool {
	switch e := err.(type) {
	case *transportError, *httpError, *laggedError:
		return true
	case *APIError:
		return e.Retryable()
	}
	return false
}

func retryAfterOf(err error) (time.Duration, bool) {
	switch e := err.(type) {
	case *httpError:
		if e.retryAfter > 0 {
			return e.retryAfter, true
		}
	case *laggedError:
		if e.retryAfter > 0 {
			return e.retryAfter, true
		}
	}
	return 0, false
}

// ListTitles enumerates every content-namespace, non-redirect page title.
// It pages through list=allpages following the apcontinue token until the
// server stops returning one (R1.1-R1.3). Progress is reported to w.
func (c *Client) ListTitles(ctx context.Context, w io.Writer) ([]string, error) {
	var titles []string
	apcontinue := ""

	for {
		params := url.Values{
			"action":        {"query"},
			"format":        {"json"},
			"list":          {"allpages"},
			"aplimit":       {strconv.Itoa(c.cfg.PageLimit)},
			"apnamespace":   {"0"},
			"apfilterredir": {"nonredirects"},
		}
		if apcontinue != "" {
			params.Set("apcontinue", apcontinue)
		}

		resp, err := c.do(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("enumerating titles: %w", err)
		}
		if resp.Query == nil {
			return nil, fmt.Errorf("enumerating titles: response carries no query result")
		}

		for _, p := range resp.Query.AllPages {
			titles = append(titles, p.Title)
		}
		fmt.Fprintf(w, "listed %d titles (total %d)\n", len(resp.Query.AllPages), len(titles))

		if resp.Continue == nil || resp.Continue.APContinue == "" {
			return titles, nil
		}
		apcontinue = resp.Continue.APContinue
	}
}

// FetchBatch retrieves the latest-revision wikitext for up to BatchSize
// titles in one request (R2.1-R2.3). It returns the fetched pages and the
// titles the wiki reported as missing; missing pages are not errors.
func (c *Client) FetchBatch(ctx context.Context, titles []string) (map[string]string, []string, error) {
	if len(titles) == 0 {
		return map[string]string{}, nil, nil
	}
	if len(titles) > c.cfg.BatchSize {
		return nil, nil, fmt.Errorf("batch of %d exceeds limit %d", len(titles), c.cfg.BatchSize)
	}
	if len(titles) == 1 {
		return c.fetchSingle(ctx, titles[0])
	}

	params := url.Values{
		"action":    {"query"},
		"format":    {"json"},
		"prop":      {"revisions"},
		"rvprop":    {"content"},
		"titles":    {strings.Join(titles, "|")},
		"redirects": {"1"},
		"maxlag":    {strconv.Itoa(c.cfg.MaxLag)},
	}

	resp, err := c.do(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	if resp.Query == nil {
		return nil, nil, fmt.Errorf("content response carries no query result")
	}

	pages := make(map[string]string, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		if p.Missing != nil || len(p.Revisions) == 0 {
			continue
		}
		pages[p.Title] = p.Revisions[0].Content
	}

	var missing []string
	for _, t := range titles {
		if _, ok := pages[t]; !ok {
			missing = append(missing, t)
		}
	}
	return pages, missing, nil
}

// fetchSingle fetches one page through action=parse, the response shape the
// API uses for single-page requests.
func (c *Client) fetchSingle(ctx context.Context, title string) (map[string]string, []string, error) {
	params := url.Values{
		"action":    {"parse"},
		"format":    {"json"},
		"prop":      {"wikitext"},
		"page":      {title},
		"redirects": {"1"},
		"maxlag":    {strconv.Itoa(c.cfg.MaxLag)},
	}

	resp, err := c.do(ctx, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "missingtitle" {
			return map[string]string{}, []string{title}, nil
		}
		return nil, nil, err
	}
	if resp.Parse == nil {
		return nil, nil, fmt.Errorf("content response carries no parse result")
	}

	name := resp.Parse.Title
	if name == "" {
		name = title
	}
	return map[string]string{name: resp.Parse.Wikitext.Content}, nil, nil
}
