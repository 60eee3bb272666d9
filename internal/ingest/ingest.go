// Package ingest loads spreadsheet workbooks into the document store.
//
// The header row names the columns; every following non-blank row becomes
// one document whose keys keep the header order. Cells are normalized by
// a Normalizer before they are stored.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/nlq/internal/clock"
	"github.com/roach88/nlq/internal/store"
)

// Table is the raw content of one sheet.
type Table struct {
	Sheet   string
	Columns []string
	Rows    [][]string
}

// ReadSheet reads a sheet of the workbook at path. An empty sheet name
// selects the first sheet.
func ReadSheet(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, &Error{Path: path, Sheet: sheet, Message: "open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, &Error{Path: path, Message: "no sheets found"}
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return Table{}, &Error{
			Path:    path,
			Sheet:   sheet,
			Message: fmt.Sprintf("sheet not found (have %s)", strings.Join(sheets, ", ")),
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, &Error{Path: path, Sheet: sheet, Message: "read rows", Err: err}
	}
	if len(rows) == 0 {
		return Table{Sheet: sheet, Columns: []string{}, Rows: [][]string{}}, nil
	}

	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		body = append(body, row)
	}
	return Table{Sheet: sheet, Columns: Columns(rows[0]), Rows: body}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Writer stores batches.
type Writer interface {
	InsertDocuments(ctx context.Context, b store.Batch) error
}

// Loader reads workbooks and writes them to a store as batches.
type Loader struct {
	writer     Writer
	normalizer *Normalizer
	ids        IDGenerator
	clock      clock.Clock
	logger     *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithIDGenerator sets the batch ID source. The default is UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Loader) {
		l.ids = g
	}
}

// WithClock sets the source of batch timestamps.
func WithClock(c clock.Clock) Option {
	return func(l *Loader) {
		l.clock = c
	}
}

// WithNormalizer replaces the cell normalizer.
func WithNormalizer(n *Normalizer) Option {
	return func(l *Loader) {
		l.normalizer = n
	}
}

// WithLogger sets the logger for load progress.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader writing to w.
func NewLoader(w Writer, opts ...Option) *Loader {
	l := &Loader{
		writer:     w,
		normalizer: NewNormalizer(nil),
		ids:        UUIDv7Generator{},
		clock:      clock.System{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load ingests one sheet of the workbook at path into collection and
// returns the batch it wrote. Loading a sheet without data rows writes
// nothing and returns a batch with no documents.
func (l *Loader) Load(ctx context.Context, path, collection, sheet string) (store.Batch, error) {
	table, err := ReadSheet(path, sheet)
	if err != nil {
		return store.Batch{}, err
	}
	l.logger.InfoContext(ctx, "columns detected", "sheet", table.Sheet, "columns", table.Columns)

	batch := store.Batch{
		ID:         l.ids.Generate(),
		Collection: collection,
		Source:     filepath.Base(path) + "#" + table.Sheet,
		Columns:    table.Columns,
		Documents:  make([]store.Document, 0, len(table.Rows)),
		CreatedAt:  l.clock.Now(),
	}
	for _, row := range table.Rows {
		batch.Documents = append(batch.Documents, l.normalizer.Row(table.Columns, row))
	}

	if len(batch.Documents) == 0 {
		l.logger.InfoContext(ctx, "no rows to insert", "sheet", table.Sheet)
		return batch, nil
	}
	if err := l.writer.InsertDocuments(ctx, batch); err != nil {
		return store.Batch{}, fmt.Errorf("ingest %s: %w", path, err)
	}
	return batch, nil
}
