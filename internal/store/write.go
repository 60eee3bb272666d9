package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/nlq/internal/ir"
	"github.com/roach88/nlq/internal/queryir"
)

// Batch is one ingestion run: a set of documents loaded together.
type Batch struct {
	ID         string
	Collection string
	Source     string
	Columns    []string
	Documents  []Document
	CreatedAt  time.Time
}

// InsertDocuments writes a batch and its documents in one transaction.
// Uses ON CONFLICT(id) DO NOTHING on the batch for idempotency - writing
// the same batch ID twice leaves the first write in place.
func (s *Store) InsertDocuments(ctx context.Context, b Batch) error {
	if b.ID == "" {
		return fmt.Errorf("insert documents: batch ID is required")
	}
	if b.Collection == "" {
		return fmt.Errorf("insert documents: collection is required")
	}

	columnsJSON, err := ir.MarshalCanonical(b.Columns)
	if err != nil {
		return fmt.Errorf("insert documents: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert documents: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ingest_batches (id, collection, source, columns, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		b.ID,
		b.Collection,
		b.Source,
		string(columnsJSON),
		len(b.Documents),
		b.CreatedAt.UTC().Format(ir.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert documents: write batch: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "batch already written", "batch", b.ID)
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, batch_id, seq, body)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert documents: prepare: %w", err)
	}
	defer stmt.Close()

	for i, doc := range b.Documents {
		body, err := doc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("insert documents: row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, b.Collection, b.ID, i, string(body)); err != nil {
			return fmt.Errorf("insert documents: row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert documents: commit: %w", err)
	}

	slog.InfoContext(ctx, "batch written",
		"batch", b.ID,
		"collection", b.Collection,
		"documents", len(b.Documents))
	return nil
}

// Translation is one translated question, logged for audit and replay.
type Translation struct {
	Collection  string
	Text        string
	Columns     []string
	Description queryir.QueryDescription
	RecordedAt  time.Time
}

// RecordTranslation appends a translation to the log and returns its ID.
// The ID is a content hash of the collection, text, column schema and
// query, so recording the same translation twice is a no-op.
func (s *Store) RecordTranslation(ctx context.Context, tr Translation) (string, error) {
	descJSON, err := ir.MarshalCanonical(tr.Description)
	if err != nil {
		return "", fmt.Errorf("record translation: %w", err)
	}
	queryID, err := tr.Description.ID()
	if err != nil {
		return "", fmt.Errorf("record translation: %w", err)
	}
	columnsHash := ir.ColumnsHash(tr.Columns)
	id := ir.TranslationID(tr.Collection, tr.Text, columnsHash, queryID)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO translations
		(id, collection, text, columns_hash, query_id, description, translator_version, ir_version, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		tr.Collection,
		tr.Text,
		columnsHash,
		queryID,
		string(descJSON),
		ir.TranslatorVersion,
		ir.IRVersion,
		tr.RecordedAt.UTC().Format(ir.TimeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("record translation: %w", err)
	}
	return id, nil
}
