package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wiki-engine/internal/store"
	"github.com/pdiddy/wiki-engine/internal/wikitext"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize raw wikitext into plain prose",
	Long: `Clean strips templates, links, tables, and HTML from every raw record
in the article cache and writes one cleaned record per article. Already
cleaned articles are skipped unless --force is set.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().String("articles-dir", "articles", "base directory for the article cache")
	cleanCmd.Flags().Bool("force", false, "re-clean articles that already have cleaned records")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	st := store.New(flagString(cmd, "articles-dir", "ingest.articles_dir"))
	if err := st.EnsureDirs(); err != nil {
		return err
	}

	result, err := wikitext.CleanBatch(st, flagBool(cmd, "force", "clean.force"), os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d article(s) failed cleanup", result.Failed)
	}
	return nil
}
