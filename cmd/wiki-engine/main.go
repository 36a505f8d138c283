// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wiki-engine CLI.
// Implements: prd001-scrape, prd002-cleanup, prd003-segment,
//             prd004-ingest, prd005-index (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wiki-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds operator values loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the wiki-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "wiki-engine",
	Short: "Wiki article pipeline: scrape, clean, segment, index",
	Long: `wiki-engine turns a MediaWiki site into a local retrieval index. The
pipeline scrapes article wikitext through the MediaWiki API, normalizes it
to plain prose, segments it into overlapping chunks, and stores the chunks
in a SQLite index with optional Ollama embeddings.

Each pipeline stage is a subcommand: titles, scrape, clean, and ingest.
Stages are resumable and idempotent, so interrupted runs pick up where
they left off. Use status to inspect indexing progress.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./wiki-engine.yaml or ~/.config/wiki-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wiki-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wiki-engine"))
		}
	}

	viper.SetEnvPrefix("WIKI_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// The flag helpers resolve a setting with flag > env > config file > flag
// default precedence: an explicit command-line flag always wins, otherwise
// viper answers from WIKI_ENGINE_* variables or the config file, keyed by
// the dotted path of the setting in the pipeline config schema.

func flagString(cmd *cobra.Command, flag, key string) string {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	v, _ := cmd.Flags().GetString(flag)
	return v
}

func flagInt(cmd *cobra.Command, flag, key string) int {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetInt(key)
	}
	v, _ := cmd.Flags().GetInt(flag)
	return v
}

func flagBool(cmd *cobra.Command, flag, key string) bool {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetBool(key)
	}
	v, _ := cmd.Flags().GetBool(flag)
	return v
}

func flagDuration(cmd *cobra.Command, flag, key string) time.Duration {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	v, _ := cmd.Flags().GetDuration(flag)
	return v
}

func main() {
	// Interrupts cancel the command context; long stages finish their
	// in-flight work and checkpoint before returning.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
