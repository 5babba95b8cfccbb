package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/vector"
)

// sqliteMaxParams stays below SQLite's default bound-parameter limit.
const sqliteMaxParams = 500

// SQLiteStore implements EmbeddingStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		key TEXT PRIMARY KEY,
		encoder_id TEXT NOT NULL,
		dims INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_encoder ON embeddings(encoder_id);
	`
	_, err := db.Exec(schema)
	return err
}

// embeddingKey hashes the encoder ID with the text; passages can be arbitrarily long.
func embeddingKey(encoderID, text string) string {
	sum := sha256.Sum256([]byte(encoderID + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// GetMany returns the stored vectors for texts, keyed by text. Texts without an entry are absent.
func (s *SQLiteStore) GetMany(ctx context.Context, encoderID string, texts []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(texts))
	byKey := make(map[string]string, len(texts))
	for _, t := range texts {
		byKey[embeddingKey(encoderID, t)] = t
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}

	for start := 0; start < len(keys); start += sqliteMaxParams {
		end := min(start+sqliteMaxParams, len(keys))
		chunk := keys[start:end]
		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}
		query := "SELECT key, vector FROM embeddings WHERE key IN (" +
			strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",") + ")"
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query embeddings: %w", err)
		}
		for rows.Next() {
			var key string
			var blob []byte
			if err := rows.Scan(&key, &blob); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan embedding: %w", err)
			}
			vec, err := vector.DecodeFloat32s(blob)
			if err != nil {
				continue
			}
			out[byKey[key]] = vec
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// PutMany stores vectors for texts in one transaction, replacing existing entries.
func (s *SQLiteStore) PutMany(ctx context.Context, encoderID string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d vs %d", len(texts), len(vectors))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO embeddings (key, encoder_id, dims, vector)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range texts {
		if _, err := stmt.ExecContext(ctx, embeddingKey(encoderID, t), encoderID, len(vectors[i]), vector.EncodeFloat32s(vectors[i])); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored embeddings for encoderID.
func (s *SQLiteStore) Count(ctx context.Context, encoderID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings WHERE encoder_id = ?", encoderID).Scan(&n)
	return n, err
}

// Prune deletes embeddings produced by any encoder other than keepEncoderID.
func (s *SQLiteStore) Prune(ctx context.Context, keepEncoderID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM embeddings WHERE encoder_id != ?", keepEncoderID)
	if err != nil {
		return 0, fmt.Errorf("failed to prune embeddings: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
