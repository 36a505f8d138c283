// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	checkpointFile    = "checkpoint.json"
	checkpointVersion = 1
)

// Checkpoint records the durable progress of an ingestion run (R4.1).
// ProcessedCount is a position in the sorted article enumeration: a resumed
// run skips exactly that many articles. It only ever covers batches whose
// index commit completed, so a crash between commit and checkpoint write
// costs duplicate work, never lost work.
type Checkpoint struct {
	Version        int      `json:"version"`
	ProcessedCount int      `json:"processed_count"`
	TotalChunks    int      `json:"total_chunks"`
	FailedArticles []string `json:"failed_articles"`
	Timestamp      int64    `json:"timestamp"`
}

// LoadCheckpoint reads the checkpoint from dir. A missing file is a fresh
// start, not an error.
func LoadCheckpoint(dir string) (Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(dir, checkpointFile))
	if os.IsNotExist(err) {
		return Checkpoint{Version: checkpointVersion}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("reading checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("parsing checkpoint: %w", err)
	}
	if cp.Version != checkpointVersion {
		return Checkpoint{}, fmt.Errorf("unsupported checkpoint version %d", cp.Version)
	}
	return cp, nil
}

// SaveCheckpoint atomically writes the checkpoint to dir, stamping it with
// the current time.
func SaveCheckpoint(dir string, cp Checkpoint) error {
	cp.Version = checkpointVersion
	cp.Timestamp = time.Now().Unix()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing checkpoint: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, checkpointFile)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// RemoveCheckpoint deletes the checkpoint file if present. Fresh runs call
// this so a later status query cannot mix old progress with new.
func RemoveCheckpoint(dir string) error {
	err := os.Remove(filepath.Join(dir, checkpointFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}
