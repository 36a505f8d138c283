// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/wiki-engine/pkg/types"
)

// DBFile is the database filename inside the index directory.
const DBFile = "wiki.db"

// SQLiteIndex stores chunks in a single SQLite database with an FTS5
// companion table for text search. Embeddings, when an Embedder is
// attached, live in a BLOB column beside the chunk.
type SQLiteIndex struct {
	db       *sql.DB
	embedder Embedder
}

// NewSQLiteIndex opens or creates the index database at dir/wiki.db and
// bootstraps the schema (R1.1, R1.2).
func NewSQLiteIndex(cfg types.IndexConfig) (*SQLiteIndex, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	x := &SQLiteIndex{db: db}
	if err := x.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return x, nil
}

// WithEmbedder attaches an embedding backend. Chunks added afterwards are
// stored with an embedding vector.
func (x *SQLiteIndex) WithEmbedder(e Embedder) *SQLiteIndex {
	x.embedder = e
	return x
}

// Close releases the database connection.
func (x *SQLiteIndex) Close() error {
	return x.db.Close()
}

func (x *SQLiteIndex) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			source_url TEXT,
			article_path TEXT,
			article_length INTEGER,
			embedding BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_parent_id ON chunks(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_title ON chunks(title)`,
	}

	for _, stmt := range statements {
		if _, err := x.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := x.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(content, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := x.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// AddBatch embeds (when configured) and inserts chunks in one transaction
// (R2.1, R2.2). A duplicate chunk id fails the whole batch via the primary
// key constraint; nothing from the batch is kept.
func (x *SQLiteIndex) AddBatch(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	embeddings := make([][]byte, len(chunks))
	if x.embedder != nil {
		for i, c := range chunks {
			vec, err := x.embedder.Embed(ctx, c.Text)
			if err != nil {
				return fmt.Errorf("embedding chunk %s: %w", c.ID, err)
			}
			embeddings[i] = encodeEmbedding(vec)
		}
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, parent_id, title, content, source_url, article_path, article_length, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		_, err := stmt.ExecContext(ctx,
			c.ID, c.ParentID, c.Title, c.Text,
			c.SourceURL, c.ArticlePath, c.ArticleLength, embeddings[i],
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// Persist forces a WAL checkpoint so all committed batches reach the main
// database file (R3.1).
func (x *SQLiteIndex) Persist(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpointing WAL: %w", err)
	}
	return nil
}

// Reset removes every chunk. The FTS triggers keep the search table in sync.
func (x *SQLiteIndex) Reset(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (x *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Search runs an FTS5 match over chunk text and returns the best chunks in
// rank order. Used by the status command's sample output and available to
// downstream retrieval tooling.
func (x *SQLiteIndex) Search(ctx context.Context, query string, limit int) ([]types.Chunk, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := x.db.QueryContext(ctx,
		`SELECT c.id, c.parent_id, c.title, c.content, c.source_url, c.article_path, c.article_length
		 FROM chunks_fts f JOIN chunks c ON c.rowid = f.rowid
		 WHERE chunks_fts MATCH ? ORDER BY f.rank LIMIT ?`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var out []types.Chunk
	for rows.Next() {
		var c types.Chunk
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Title, &c.Text,
			&c.SourceURL, &c.ArticlePath, &c.ArticleLength); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// encodeEmbedding packs a vector as little-endian float64s.
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, 8*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// decodeEmbedding unpacks a vector stored by encodeEmbedding.
func decodeEmbedding(buf []byte) []float64 {
	vec := make([]float64, len(buf)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}
