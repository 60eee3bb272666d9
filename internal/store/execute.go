package store

import (
	"context"

	"github.com/roach88/nlq/internal/queryir"
)

// Result is the outcome of executing a query description.
type Result struct {
	Intent queryir.Intent

	// Count and Distinct are set for count queries. Distinct is nil when
	// the description names no distinct field.
	Count    *int64
	Distinct *int64

	// Rows holds listed documents or aggregation output.
	Rows []Document
}

// Execute runs desc against a collection: count descriptions count,
// descriptions with an aggregation aggregate, and the rest list documents.
func (s *Store) Execute(ctx context.Context, collection string, desc queryir.QueryDescription) (Result, error) {
	res := Result{Intent: desc.Intent}

	switch {
	case desc.IsCount:
		n, err := s.Count(ctx, collection, desc.Filter)
		if err != nil {
			return Result{}, err
		}
		res.Count = &n
		if desc.DistinctField != "" {
			d, err := s.DistinctCount(ctx, collection, desc.DistinctField, desc.Filter)
			if err != nil {
				return Result{}, err
			}
			res.Distinct = &d
		}
		res.Rows = []Document{}
	case desc.Aggregation != nil:
		rows, err := s.Aggregate(ctx, collection, *desc.Aggregation)
		if err != nil {
			return Result{}, err
		}
		res.Rows = rows
	default:
		rows, err := s.Find(ctx, collection, desc)
		if err != nil {
			return Result{}, err
		}
		res.Rows = rows
	}
	return res, nil
}

// Reports are the summaries shown alongside a plain listing.
type Reports struct {
	// Statuses counts matching documents per status value.
	Statuses []Document

	// Duplicates lists identifier values shared by several documents.
	Duplicates []Document
}

// RunReports computes the status breakdown and duplicate identifiers for
// the documents matching filter. An empty field name skips its report.
func (s *Store) RunReports(ctx context.Context, collection string, filter queryir.Filter, statusField, idField string) (Reports, error) {
	reports := Reports{Statuses: []Document{}, Duplicates: []Document{}}
	if statusField != "" {
		rows, err := s.Aggregate(ctx, collection, queryir.StatusBreakdown(filter, statusField))
		if err != nil {
			return Reports{}, err
		}
		reports.Statuses = rows
	}
	if idField != "" {
		rows, err := s.Aggregate(ctx, collection, queryir.DuplicateGroups(filter, idField))
		if err != nil {
			return Reports{}, err
		}
		reports.Duplicates = rows
	}
	return reports, nil
}
