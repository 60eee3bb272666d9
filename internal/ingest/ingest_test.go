package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/store"
	"github.com/roach88/nlq/internal/testutil"
)

// writeWorkbook saves rows to Sheet1 of a new workbook, plus any extra
// named sheets.
func writeWorkbook(t *testing.T, rows [][]any, extra ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	for _, name := range extra {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "shipments.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func shipmentRows() [][]any {
	return [][]any{
		{"Ref #", "Ship Date", "Status", "Published Cost"},
		{"00101", "2024-03-02", "Delivered", 1200},
		{"00102", "2024-03-10", "Pending", "1,450.50"},
		{},
		{"00103", "2024-02-20", "delivered", ""},
	}
}

type recordingWriter struct {
	batches []store.Batch
	err     error
}

func (w *recordingWriter) InsertDocuments(_ context.Context, b store.Batch) error {
	w.batches = append(w.batches, b)
	return w.err
}

func newTestLoader(w Writer) *Loader {
	return NewLoader(w,
		WithIDGenerator(NewFixedGenerator("batch-1", "batch-2")),
		WithClock(testutil.NewFixedClock()),
		WithNormalizer(NewNormalizer(testutil.IST)),
	)
}

func TestReadSheet(t *testing.T) {
	path := writeWorkbook(t, shipmentRows())

	table, err := ReadSheet(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", table.Sheet)
	assert.Equal(t, testutil.ShipmentColumns(), table.Columns)
	assert.Len(t, table.Rows, 3, "blank rows are skipped")
}

func TestReadSheet_Errors(t *testing.T) {
	_, err := ReadSheet(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	require.Error(t, err)
	assert.True(t, IsIngestError(err))

	path := writeWorkbook(t, shipmentRows(), "Other")
	_, err = ReadSheet(path, "Nope")
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Nope", ie.Sheet)
	assert.Contains(t, ie.Error(), "Other")

	table, err := ReadSheet(path, "Other")
	require.NoError(t, err)
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, shipmentRows())
	w := &recordingWriter{}

	batch, err := newTestLoader(w).Load(context.Background(), path, "shipments", "")
	require.NoError(t, err)
	require.Len(t, w.batches, 1)
	assert.Equal(t, batch, w.batches[0])

	assert.Equal(t, "batch-1", batch.ID)
	assert.Equal(t, "shipments", batch.Collection)
	assert.Equal(t, "shipments.xlsx#Sheet1", batch.Source)
	assert.True(t, testutil.FixedNow.Equal(batch.CreatedAt))
	require.Len(t, batch.Documents, 3)

	first := batch.Documents[0]
	assert.Equal(t, testutil.ShipmentColumns(), first.Keys)
	assert.Equal(t, "00101", first.Values["Ref #"])
	assert.Equal(t, "2024-03-01T18:30:00.000Z", first.Values["Ship Date"])
	assert.Equal(t, "Delivered", first.Values["Status"])
	assert.Equal(t, int64(1200), first.Values["Published Cost"])

	assert.Equal(t, 1450.5, batch.Documents[1].Values["Published Cost"])
	assert.Nil(t, batch.Documents[2].Values["Published Cost"])
}

func TestLoad_EmptySheetWritesNothing(t *testing.T) {
	path := writeWorkbook(t, [][]any{{"Ref #", "Status"}})
	w := &recordingWriter{}

	batch, err := newTestLoader(w).Load(context.Background(), path, "c", "")
	require.NoError(t, err)
	assert.Empty(t, batch.Documents)
	assert.Empty(t, w.batches)
}

func TestLoad_WriterError(t *testing.T) {
	path := writeWorkbook(t, shipmentRows())
	w := &recordingWriter{err: errors.New("disk full")}

	_, err := newTestLoader(w).Load(context.Background(), path, "c", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestLoad_IntoStore(t *testing.T) {
	path := writeWorkbook(t, shipmentRows())
	s, err := store.Open(filepath.Join(t.TempDir(), "nlq.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = newTestLoader(s).Load(ctx, path, "shipments", "")
	require.NoError(t, err)

	columns, err := s.Columns(ctx, "shipments")
	require.NoError(t, err)
	assert.Equal(t, testutil.ShipmentColumns(), columns)

	n, err := s.Count(ctx, "shipments", queryir.Filter{"Status": queryir.In{Values: []string{"delivered"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	info, err := s.Batch(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 3, info.RowCount)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}

func TestFixedGeneratorExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
