package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wiki-engine/internal/mediawiki"
)

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "Enumerate all article titles from the wiki",
	Long: `Titles walks the wiki's complete page list through the MediaWiki API
(main namespace, redirects excluded) and writes a YAML titles file with
the source endpoint, count, and timestamp. The scrape command can fetch
from this file instead of re-enumerating.`,
	RunE: runTitles,
}

func init() {
	titlesCmd.Flags().String("out", "titles.yaml", "output path for the titles file")
	titlesCmd.Flags().Int("page-limit", 500, "titles requested per enumeration page")
	sourceFlags(titlesCmd)

	rootCmd.AddCommand(titlesCmd)
}

func runTitles(cmd *cobra.Command, args []string) error {
	cfg := sourceConfig(cmd)
	client := mediawiki.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg)

	titles, err := client.ListTitles(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	out := flagString(cmd, "out", "source.titles_file")
	if err := mediawiki.WriteTitlesFile(out, mediawiki.BaseURL, titles); err != nil {
		return err
	}
	fmt.Printf("wrote %d titles to %s\n", len(titles), out)
	return nil
}
