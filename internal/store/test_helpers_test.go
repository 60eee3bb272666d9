package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/nlq/internal/querysql"
	"github.com/roach88/nlq/internal/testutil"
)

const testCollection = "shipments"

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// shipment builds a document in the sample shipment schema.
func shipment(ref string, month time.Month, day int, status, cost any) Document {
	var d Document
	d.Set("Ref #", ref)
	d.Set("Ship Date", querysql.FormatTime(testutil.Date(2024, month, day)))
	d.Set("Status", status)
	d.Set("Published Cost", cost)
	return d
}

// seedShipments writes five shipments:
//
//	R1  2024-03-02  Delivered   1200
//	R2  2024-03-10  Pending     450.5
//	R3  2024-02-20  delivered   "n/a"
//	R1  2024-03-14  In Transit  3000
//	R4  2024-03-12  null        null
func seedShipments(t *testing.T, s *Store) {
	t.Helper()
	batch := Batch{
		ID:         "0190a000-0000-7000-8000-000000000001",
		Collection: testCollection,
		Source:     "shipments.xlsx#Sheet1",
		Columns:    []string{"Ref #", "Ship Date", "Status", "Published Cost"},
		Documents: []Document{
			shipment("R1", time.March, 2, "Delivered", int64(1200)),
			shipment("R2", time.March, 10, "Pending", 450.5),
			shipment("R3", time.February, 20, "delivered", "n/a"),
			shipment("R1", time.March, 14, "In Transit", int64(3000)),
			shipment("R4", time.March, 12, nil, nil),
		},
		CreatedAt: testutil.FixedNow,
	}
	if err := s.InsertDocuments(context.Background(), batch); err != nil {
		t.Fatalf("InsertDocuments() failed: %v", err)
	}
}
