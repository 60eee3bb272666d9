package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var shipmentHeader = []any{"Ref #", "Ship Date", "Status", "Published Cost"}

var shipmentRows = [][]any{
	{"R1", "2024-03-02", "Delivered", "1200"},
	{"R2", "2024-03-10", "Pending", "450.5"},
	{"R3", "2024-02-20", "delivered", ""},
	{"R1", "2024-03-14", "In Transit", "3000"},
	{"R4", "2024-03-12", "", ""},
}

// writeWorkbook saves the sample shipment sheet and returns its path.
func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &shipmentHeader))
	for i, row := range shipmentRows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, "shipments.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a JSON CLI response with a map payload.
func decodeResponse(t *testing.T, out string) (CLIResponse, map[string]any) {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

// ingestSample loads the sample workbook into a fresh database.
func ingestSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "nlq.db")
	_, err := execute(t, "ingest", writeWorkbook(t, dir), "--db", db)
	require.NoError(t, err)
	return db
}
