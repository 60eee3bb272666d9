package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/nlq/internal/ir"
	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/querysql"
)

// Columns returns the column schema of a collection: the keys of its first
// document in ingestion order, without the reserved _id key.
func (s *Store) Columns(ctx context.Context, collection string) ([]string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM documents
		WHERE collection = ?
		ORDER BY id ASC
		LIMIT 1
	`, collection).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{
			Code:       ErrCodeEmptyCollection,
			Message:    "collection has no documents; ingest data first",
			Collection: collection,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read sample document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("read sample document: %w", err)
	}
	columns := make([]string, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		if k != queryir.GroupKeyField {
			columns = append(columns, k)
		}
	}
	return columns, nil
}

// Find returns the documents matching desc.Filter, at most desc.Limit of
// them, in ingestion order.
func (s *Store) Find(ctx context.Context, collection string, desc queryir.QueryDescription) ([]Document, error) {
	stmt, err := querysql.NewSQLCompiler(collection).CompileFind(desc.Filter, desc.Limit)
	if err != nil {
		return nil, compileError(collection, err)
	}
	return s.run(ctx, stmt)
}

// Count returns the number of documents matching filter.
func (s *Store) Count(ctx context.Context, collection string, filter queryir.Filter) (int64, error) {
	query, params, err := querysql.NewSQLCompiler(collection).CompileCount(filter)
	if err != nil {
		return 0, compileError(collection, err)
	}
	return s.count(ctx, query, params)
}

// DistinctCount returns the number of distinct non-blank values of field
// among the documents matching filter.
func (s *Store) DistinctCount(ctx context.Context, collection, field string, filter queryir.Filter) (int64, error) {
	query, params, err := querysql.NewSQLCompiler(collection).CompileDistinctCount(filter, field)
	if err != nil {
		return 0, compileError(collection, err)
	}
	return s.count(ctx, query, params)
}

func (s *Store) count(ctx context.Context, query string, params []any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Aggregate executes a stage plan. Plans with a group stage return one
// document per group keyed by _id and the accumulator names; other plans
// return matching documents with computed fields attached.
func (s *Store) Aggregate(ctx context.Context, collection string, agg queryir.Aggregation) ([]Document, error) {
	stmt, err := querysql.NewSQLCompiler(collection).CompileAggregation(agg)
	if err != nil {
		return nil, compileError(collection, err)
	}
	return s.run(ctx, stmt)
}

func compileError(collection string, err error) error {
	var fieldErr *querysql.FieldError
	if errors.As(err, &fieldErr) {
		return &Error{Code: ErrCodeUnsupportedField, Message: fieldErr.Error(), Collection: collection, Err: err}
	}
	var planErr *querysql.PlanError
	if errors.As(err, &planErr) {
		return &Error{Code: ErrCodeInvalidPlan, Message: planErr.Error(), Collection: collection, Err: err}
	}
	return fmt.Errorf("compile query: %w", err)
}

// run executes a compiled statement and decodes its rows.
func (s *Store) run(ctx context.Context, stmt querysql.Statement) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		switch stmt.Shape {
		case querysql.ShapeGroups:
			doc, err = scanGroup(rows, stmt.GroupColumns)
		default:
			doc, err = scanDocument(rows, stmt.Computed)
		}
		if err != nil {
			return nil, err
		}
		if len(stmt.Exclude) > 0 {
			doc = doc.Without(stmt.Exclude...)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// scanDocument scans (id, body, computed...) into a document.
func scanDocument(rows *sql.Rows, computed []string) (Document, error) {
	var (
		id     int64
		body   string
		values = make([]any, len(computed))
	)
	dest := []any{&id, &body}
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return Document{}, fmt.Errorf("scan document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Document{}, fmt.Errorf("decode document %d: %w", id, err)
	}
	for i, name := range computed {
		doc.Set(name, sqlValue(values[i]))
	}
	return doc, nil
}

// scanGroup scans one group row into a document keyed by column name.
func scanGroup(rows *sql.Rows, columns []string) (Document, error) {
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return Document{}, fmt.Errorf("scan group: %w", err)
	}

	var doc Document
	for i, col := range columns {
		doc.Set(col, sqlValue(values[i]))
	}
	return doc, nil
}

// sqlValue converts a driver value to the type a decoded body would hold.
func sqlValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// BatchInfo describes a stored ingest batch.
type BatchInfo struct {
	ID         string
	Collection string
	Source     string
	Columns    []string
	RowCount   int
	CreatedAt  time.Time
}

// Batch returns the ingest batch with the given ID.
func (s *Store) Batch(ctx context.Context, id string) (BatchInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection, source, columns, row_count, created_at
		FROM ingest_batches
		WHERE id = ?
	`, id)
	info, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BatchInfo{}, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("batch %s not found", id)}
	}
	return info, err
}

// Batches returns the ingest batches of a collection, oldest first.
// Returns an empty slice (not nil) if there are none.
func (s *Store) Batches(ctx context.Context, collection string) ([]BatchInfo, error) {
	// UUIDv7 IDs sort by creation time; rowid breaks ties deterministically
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, source, columns, row_count, created_at
		FROM ingest_batches
		WHERE collection = ?
		ORDER BY id COLLATE BINARY ASC, rowid ASC
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []BatchInfo{}
	for rows.Next() {
		info, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (BatchInfo, error) {
	var (
		info        BatchInfo
		columnsJSON string
		createdAt   string
	)
	if err := row.Scan(&info.ID, &info.Collection, &info.Source, &columnsJSON, &info.RowCount, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BatchInfo{}, err
		}
		return BatchInfo{}, fmt.Errorf("scan batch: %w", err)
	}
	if err := json.Unmarshal([]byte(columnsJSON), &info.Columns); err != nil {
		return BatchInfo{}, fmt.Errorf("decode batch %s columns: %w", info.ID, err)
	}
	t, err := time.Parse(ir.TimeLayout, createdAt)
	if err != nil {
		return BatchInfo{}, fmt.Errorf("decode batch %s time: %w", info.ID, err)
	}
	info.CreatedAt = t
	return info, nil
}

// TranslationRecord is a logged translation as stored.
type TranslationRecord struct {
	ID                string
	Collection        string
	Text              string
	ColumnsHash       string
	QueryID           string
	Description       json.RawMessage
	TranslatorVersion string
	IRVersion         string
}

// Translations returns the logged translations of a collection in the
// order they were first recorded.
func (s *Store) Translations(ctx context.Context, collection string) ([]TranslationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, text, columns_hash, query_id, description, translator_version, ir_version
		FROM translations
		WHERE collection = ?
		ORDER BY rowid ASC, id COLLATE BINARY ASC
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()

	records := []TranslationRecord{}
	for rows.Next() {
		var (
			rec  TranslationRecord
			desc string
		)
		if err := rows.Scan(&rec.ID, &rec.Collection, &rec.Text, &rec.ColumnsHash, &rec.QueryID, &desc,
			&rec.TranslatorVersion, &rec.IRVersion); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		rec.Description = json.RawMessage(desc)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return records, nil
}
