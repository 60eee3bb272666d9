package queryir

import "github.com/roach88/nlq/internal/ir"

// DefaultLimit caps a plain listing when configuration does not say otherwise.
const DefaultLimit = 100

// Intent is the high-level shape of the requested result.
type Intent string

const (
	IntentDefault Intent = "default"
	IntentCount   Intent = "count"
	IntentSum     Intent = "sum"
	IntentGroupBy Intent = "group_by"
	IntentTopN    Intent = "top_n"
)

// AggregationKind labels a plan for consumers that render results.
type AggregationKind string

const (
	KindSum       AggregationKind = "sum"
	KindGroupCost AggregationKind = "groupCost"
	KindTop       AggregationKind = "top"
	KindReport    AggregationKind = "report"
)

// Aggregation is an ordered stage plan.
type Aggregation struct {
	Kind   AggregationKind
	Stages []Stage
}

func (a Aggregation) Canonical() any {
	stages := make([]any, len(a.Stages))
	for i, s := range a.Stages {
		stages[i] = s.Canonical()
	}
	return map[string]any{"kind": string(a.Kind), "stages": stages}
}

// QueryDescription is the translator's output.
//
// Limit applies to plain listings only. When IsCount is set the caller
// counts matches, and also distinct values of DistinctField when it is
// non-empty, instead of listing documents. Aggregation is nil unless the
// intent is Sum, GroupBy or TopN.
type QueryDescription struct {
	Filter        Filter
	Limit         int
	IsCount       bool
	Intent        Intent
	DistinctField string
	Aggregation   *Aggregation
}

func (d QueryDescription) Canonical() any {
	filter := d.Filter
	if filter == nil {
		filter = Filter{}
	}
	out := map[string]any{
		"filter":  filter.Canonical(),
		"limit":   d.Limit,
		"isCount": d.IsCount,
		"intent":  string(d.Intent),
	}
	if d.DistinctField != "" {
		out["distinctField"] = d.DistinctField
	}
	if d.Aggregation != nil {
		out["aggregation"] = d.Aggregation.Canonical()
	}
	return out
}

// MarshalJSON encodes the description in canonical form.
func (d QueryDescription) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical(d)
}

// ID returns the content-addressed identity of the description.
func (d QueryDescription) ID() (string, error) {
	return ir.QueryID(d)
}
