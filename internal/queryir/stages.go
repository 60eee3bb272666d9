package queryir

import "slices"

// Reserved names used by the plans the translator builds.
const (
	// ComputedCostField holds the numeric cost during a top-N sort.
	ComputedCostField = "__cost_num"

	// GroupKeyField is the output column carrying a group's key.
	GroupKeyField = "_id"
)

// Stage represents one step of an aggregation plan.
//
// This is a sealed interface - only types in this package implement it.
//
// Stage types:
//   - Match: filter documents (or groups, after a Group)
//   - AddComputedField: attach a derived numeric field
//   - Group: collapse documents by key with accumulators
//   - Sort: order by one field
//   - Limit: keep the first N
//   - ExcludeProjection: drop fields from the output
type Stage interface {
	stageNode() // Marker method - seals interface to this package
	Canonical() any
}

// ToDouble coerces Field to a float64. OnError replaces values that are
// present but not numeric; OnNull replaces missing and null values.
type ToDouble struct {
	Field   string
	OnError float64
	OnNull  float64
}

// ToDoubleOrZero is the coercion every numeric stage uses: bad data
// counts as zero instead of failing the aggregation.
func ToDoubleOrZero(field string) ToDouble {
	return ToDouble{Field: field}
}

func (e ToDouble) Canonical() any {
	return map[string]any{"toDouble": map[string]any{
		"field":   e.Field,
		"onError": e.OnError,
		"onNull":  e.OnNull,
	}}
}

// Match filters the stream.
type Match struct {
	Filter Filter
}

func (Match) stageNode() {}

func (s Match) Canonical() any {
	return map[string]any{"match": s.Filter.Canonical()}
}

// AddComputedField adds Name = Expr to every document.
type AddComputedField struct {
	Name string
	Expr ToDouble
}

func (AddComputedField) stageNode() {}

func (s AddComputedField) Canonical() any {
	return map[string]any{"addComputedField": map[string]any{
		"name": s.Name,
		"expr": s.Expr.Canonical(),
	}}
}

// AccOp is a group accumulator.
type AccOp string

const (
	AccCount AccOp = "count"
	AccSum   AccOp = "sum"
	AccAvg   AccOp = "avg"
)

// Accumulator computes Name over a group. Count ignores Input.
type Accumulator struct {
	Name  string
	Op    AccOp
	Input *ToDouble
}

func (a Accumulator) Canonical() any {
	out := map[string]any{"name": a.Name, "op": string(a.Op)}
	if a.Input != nil {
		out["input"] = a.Input.Canonical()
	}
	return out
}

// Group collapses the stream by Key. An empty Key groups everything into
// a single null-keyed group.
type Group struct {
	Key          string
	Accumulators []Accumulator
}

func (Group) stageNode() {}

func (s Group) Canonical() any {
	var key any
	if s.Key != "" {
		key = s.Key
	}
	accs := make([]any, len(s.Accumulators))
	for i, a := range s.Accumulators {
		accs[i] = a.Canonical()
	}
	return map[string]any{"group": map[string]any{
		"key":          key,
		"accumulators": accs,
	}}
}

// AccumulatorNames returns the output columns the group produces besides
// GroupKeyField.
func (s Group) AccumulatorNames() []string {
	names := make([]string, len(s.Accumulators))
	for i, a := range s.Accumulators {
		names[i] = a.Name
	}
	return names
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders the stream by Field.
type Sort struct {
	Field     string
	Direction Direction
}

func (Sort) stageNode() {}

func (s Sort) Canonical() any {
	return map[string]any{"sort": map[string]any{
		"field":     s.Field,
		"direction": string(s.Direction),
	}}
}

// Limit keeps the first N results.
type Limit struct {
	N int
}

func (Limit) stageNode() {}

func (s Limit) Canonical() any {
	return map[string]any{"limit": s.N}
}

// ExcludeProjection removes Fields from every output document.
type ExcludeProjection struct {
	Fields []string
}

func (ExcludeProjection) stageNode() {}

func (s ExcludeProjection) Canonical() any {
	return map[string]any{"excludeProjection": slices.Clone(s.Fields)}
}
