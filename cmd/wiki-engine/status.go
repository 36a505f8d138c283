package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wiki-engine/internal/index"
	"github.com/pdiddy/wiki-engine/internal/ingest"
	"github.com/pdiddy/wiki-engine/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report ingestion progress and index contents",
	Long: `Status prints the ingestion checkpoint, recorded article failures, and
the chunk count of the index. With --search, it also runs a full-text
query against the indexed chunks and prints the top matches.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("index-dir", "index", "directory for the index database and checkpoint")
	statusCmd.Flags().String("search", "", "full-text query to sample the index")
	statusCmd.Flags().Int("limit", 5, "maximum matches to print with --search")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	indexDir := flagString(cmd, "index-dir", "index.dir")

	cp, err := ingest.LoadCheckpoint(indexDir)
	if err != nil {
		return err
	}
	if cp.Timestamp == 0 {
		fmt.Println("Checkpoint: none (nothing ingested yet)")
	} else {
		fmt.Printf("Checkpoint: %d articles processed, %d chunks, written %s\n",
			cp.ProcessedCount, cp.TotalChunks, time.Unix(cp.Timestamp, 0).Format(time.RFC3339))
	}

	failures, err := ingest.ReadManifest(indexDir)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		titles := make([]string, 0, len(failures))
		for t := range failures {
			titles = append(titles, t)
		}
		sort.Strings(titles)
		fmt.Printf("Failed articles: %d\n", len(failures))
		for _, t := range titles {
			fmt.Printf("  %s: %s\n", t, failures[t])
		}
	}

	if _, err := os.Stat(filepath.Join(indexDir, index.DBFile)); os.IsNotExist(err) {
		fmt.Println("Index: not created")
		return nil
	}

	idx, err := index.NewSQLiteIndex(types.IndexConfig{Dir: indexDir})
	if err != nil {
		return err
	}
	defer idx.Close()

	count, err := idx.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Index: %d chunks in %s\n", count, filepath.Join(indexDir, index.DBFile))

	query, _ := cmd.Flags().GetString("search")
	if query == "" {
		return nil
	}
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := idx.Search(cmd.Context(), query, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	fmt.Printf("\n%-4s  %-30s  %s\n", "Rank", "Title", "Content")
	fmt.Println(strings.Repeat("-", 90))
	for i, c := range results {
		content := strings.ReplaceAll(c.Text, "\n", " ")
		if len(content) > 50 {
			content = content[:47] + "..."
		}
		title := c.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		fmt.Printf("%-4d  %-30s  %s\n", i+1, title, content)
	}
	return nil
}
