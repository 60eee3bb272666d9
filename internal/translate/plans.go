package translate

import "github.com/roach88/nlq/internal/queryir"

// Plans copy the filter into their match stage, so a description's Filter
// and its plan never share a map.

// SumPlan totals the cost column over the matching documents.
func SumPlan(filter queryir.Filter, cost string) *queryir.Aggregation {
	input := queryir.ToDoubleOrZero(cost)
	return &queryir.Aggregation{
		Kind: queryir.KindSum,
		Stages: []queryir.Stage{
			queryir.Match{Filter: filter.Clone()},
			queryir.Group{Accumulators: []queryir.Accumulator{
				{Name: queryir.TotalAcc, Op: queryir.AccSum, Input: &input},
			}},
		},
	}
}

// GroupCostPlan reports count, total and average cost per value of group,
// highest total first.
func GroupCostPlan(filter queryir.Filter, group, cost string) *queryir.Aggregation {
	input := queryir.ToDoubleOrZero(cost)
	return &queryir.Aggregation{
		Kind: queryir.KindGroupCost,
		Stages: []queryir.Stage{
			queryir.Match{Filter: filter.Clone()},
			queryir.Group{Key: group, Accumulators: []queryir.Accumulator{
				{Name: queryir.CountAcc, Op: queryir.AccCount},
				{Name: queryir.TotalCostAcc, Op: queryir.AccSum, Input: &input},
				{Name: queryir.AvgCostAcc, Op: queryir.AccAvg, Input: &input},
			}},
			queryir.Sort{Field: queryir.TotalCostAcc, Direction: queryir.Desc},
		},
	}
}

// TopPlan returns the n most expensive documents. The numeric cost lives in
// a temporary field that is projected away at the end. The match stage is
// omitted when the filter is empty.
func TopPlan(filter queryir.Filter, cost string, n int) *queryir.Aggregation {
	var stages []queryir.Stage
	if len(filter) > 0 {
		stages = append(stages, queryir.Match{Filter: filter.Clone()})
	}
	stages = append(stages,
		queryir.AddComputedField{Name: queryir.ComputedCostField, Expr: queryir.ToDoubleOrZero(cost)},
		queryir.Sort{Field: queryir.ComputedCostField, Direction: queryir.Desc},
		queryir.Limit{N: n},
		queryir.ExcludeProjection{Fields: []string{queryir.ComputedCostField}},
	)
	return &queryir.Aggregation{Kind: queryir.KindTop, Stages: stages}
}
