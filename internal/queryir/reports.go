package queryir

// Accumulator and report constants shared by the translator and the
// report plans.
const (
	CountAcc     = "count"
	TotalAcc     = "total"
	TotalCostAcc = "total_cost"
	AvgCostAcc   = "avg_cost"

	// DuplicateReportLimit caps the duplicate identifier report.
	DuplicateReportLimit = 10
)

// StatusBreakdown counts the documents matching filter per value of
// statusField, largest group first.
func StatusBreakdown(filter Filter, statusField string) Aggregation {
	return Aggregation{
		Kind: KindReport,
		Stages: []Stage{
			Match{Filter: filter},
			Group{Key: statusField, Accumulators: []Accumulator{{Name: CountAcc, Op: AccCount}}},
			Sort{Field: CountAcc, Direction: Desc},
		},
	}
}

// DuplicateGroups finds identifier values shared by more than one matching
// document, most duplicated first.
func DuplicateGroups(filter Filter, idField string) Aggregation {
	return Aggregation{
		Kind: KindReport,
		Stages: []Stage{
			Match{Filter: filter},
			Group{Key: idField, Accumulators: []Accumulator{{Name: CountAcc, Op: AccCount}}},
			Match{Filter: Filter{CountAcc: Compare{Ops: map[CmpOp]float64{OpGt: 1}}}},
			Sort{Field: CountAcc, Direction: Desc},
			Limit{N: DuplicateReportLimit},
		},
	}
}
