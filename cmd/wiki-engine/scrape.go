package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wiki-engine/internal/mediawiki"
	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "wiki-engine/0.1"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [titles...]",
	Short: "Fetch article wikitext into the local cache",
	Long: `Scrape fetches page content in batches through the MediaWiki API and
saves one raw record per article. Titles come from arguments, from a
titles file (--titles-file), or from live enumeration when neither is
given. Existing records are skipped unless --refetch is set.`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().String("titles-file", "", "read titles from a titles file instead of enumerating")
	scrapeCmd.Flags().String("articles-dir", "articles", "base directory for the article cache")
	scrapeCmd.Flags().Int("batch-size", 50, "titles fetched per content request")
	scrapeCmd.Flags().Int("maxlag", 5, "maxlag threshold in seconds sent with content requests")
	scrapeCmd.Flags().Bool("refetch", false, "re-fetch articles that already have raw records")
	sourceFlags(scrapeCmd)

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := sourceConfig(cmd)
	client := mediawiki.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg)

	st := store.New(flagString(cmd, "articles-dir", "ingest.articles_dir"))
	if err := st.EnsureDirs(); err != nil {
		return err
	}

	titles := args
	if len(titles) == 0 {
		if path := flagString(cmd, "titles-file", "source.titles_file"); path != "" {
			tf, err := mediawiki.ReadTitlesFile(path)
			if err != nil {
				return err
			}
			titles = tf.Titles
		} else {
			var err error
			titles, err = client.ListTitles(cmd.Context(), os.Stdout)
			if err != nil {
				return err
			}
		}
	}

	refetch := flagBool(cmd, "refetch", "source.refetch")
	result, err := mediawiki.Scrape(cmd.Context(), client, st, titles, refetch, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed to fetch", result.Failed)
	}
	return nil
}

// sourceFlags registers the flags shared by every command that talks to
// the wiki API.
func sourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-url", mediawiki.BaseURL, "MediaWiki api.php endpoint")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	cmd.Flags().Duration("delay", 500*time.Millisecond, "minimum interval between API requests")
	cmd.Flags().Int("max-retries", 4, "attempt ceiling for transient API failures")
	cmd.Flags().Duration("retry-backoff", 5*time.Second, "base backoff between retries")
	cmd.Flags().String("contact", "", "contact email sent in the User-Agent header")
}

// sourceConfig builds the wiki client configuration from flags, config
// file, and secrets. It also points the client at the configured API
// endpoint. Flags absent from the calling command fall back to the config
// file or the client's own defaults.
func sourceConfig(cmd *cobra.Command) types.SourceConfig {
	if u := flagString(cmd, "api-url", "source.api_url"); u != "" {
		mediawiki.BaseURL = u
	}

	timeout := flagDuration(cmd, "timeout", "source.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	ua := defaultUserAgent
	if contact := secretDefault("contact-email", flagString(cmd, "contact", "source.contact")); contact != "" {
		ua = fmt.Sprintf("%s (%s)", defaultUserAgent, contact)
	}

	return types.SourceConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: ua,
		},
		PageLimit:    flagInt(cmd, "page-limit", "source.page_limit"),
		BatchSize:    flagInt(cmd, "batch-size", "source.batch_size"),
		RequestDelay: flagDuration(cmd, "delay", "source.request_delay"),
		MaxRetries:   flagInt(cmd, "max-retries", "source.max_retries"),
		RetryBackoff: flagDuration(cmd, "retry-backoff", "source.retry_backoff"),
		MaxLag:       flagInt(cmd, "maxlag", "source.max_lag"),
	}
}
