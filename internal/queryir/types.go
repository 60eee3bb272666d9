package queryir

import (
	"slices"
	"time"
)

// CmpOp is a numeric comparison operator.
type CmpOp string

const (
	OpEq  CmpOp = "eq"
	OpGt  CmpOp = "gt"
	OpLt  CmpOp = "lt"
	OpGte CmpOp = "gte"
	OpLte CmpOp = "lte"
)

// ParseCmpOp maps a textual operator ("=", ">", "<", ">=", "<=") to a CmpOp.
func ParseCmpOp(s string) (CmpOp, bool) {
	switch s {
	case "=":
		return OpEq, true
	case ">":
		return OpGt, true
	case "<":
		return OpLt, true
	case ">=":
		return OpGte, true
	case "<=":
		return OpLte, true
	}
	return "", false
}

// Predicate represents a per-field condition in a Filter.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = value
//   - In: field is one of a set of strings (case-insensitive)
//   - Regex: field matches a pattern
//   - Compare: numeric comparison, one or more operators
//   - TimeRange: timestamp window
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
	Canonical() any
}

// Equals represents a field-equals-literal predicate.
// Value must be a type ir.MarshalCanonical accepts.
type Equals struct {
	Value any
}

func (Equals) predicateNode() {}

func (e Equals) Canonical() any { return e.Value }

// In represents set membership. Backends compare case-insensitively, since
// status words come from free text and cells keep their spreadsheet casing.
type In struct {
	Values []string
}

func (In) predicateNode() {}

func (p In) Canonical() any {
	return map[string]any{"in": slices.Clone(p.Values)}
}

// Regex represents a pattern match. The pattern is used as given; callers
// building it from free text must quote it first.
type Regex struct {
	Pattern         string
	CaseInsensitive bool
}

func (Regex) predicateNode() {}

func (p Regex) Canonical() any {
	out := map[string]any{"regex": p.Pattern}
	if p.CaseInsensitive {
		out["caseInsensitive"] = true
	}
	return out
}

// Compare represents one or more numeric comparisons on the same field,
// all of which must hold. {gt: 100, lt: 500} is the open range (100, 500).
type Compare struct {
	Ops map[CmpOp]float64
}

func (Compare) predicateNode() {}

func (p Compare) Canonical() any {
	out := make(map[string]any, len(p.Ops))
	for op, v := range p.Ops {
		out[string(op)] = v
	}
	return out
}

// SortedOps returns the operators in a fixed order for backends that need
// deterministic output.
func (p Compare) SortedOps() []CmpOp {
	ops := make([]CmpOp, 0, len(p.Ops))
	for op := range p.Ops {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

// TimeRange is a timestamp window on Field. Start is inclusive. End is
// exclusive unless Closed is set (the explicit "between A and B" form).
type TimeRange struct {
	Field  string
	Start  time.Time
	End    time.Time
	Closed bool
}

func (TimeRange) predicateNode() {}

func (r TimeRange) Canonical() any {
	out := map[string]any{"gte": r.Start}
	if r.Closed {
		out["lte"] = r.End
	} else {
		out["lt"] = r.End
	}
	return out
}

// Filter maps a resolved column name to its predicate. The empty filter
// matches every document.
type Filter map[string]Predicate

// Set stores p on field. Two Compare predicates on the same field merge
// into one multi-operator map; any other combination overwrites.
func (f Filter) Set(field string, p Predicate) {
	if next, ok := p.(Compare); ok {
		if prev, ok := f[field].(Compare); ok {
			merged := Compare{Ops: make(map[CmpOp]float64, len(prev.Ops)+len(next.Ops))}
			for op, v := range prev.Ops {
				merged.Ops[op] = v
			}
			for op, v := range next.Ops {
				merged.Ops[op] = v
			}
			f[field] = merged
			return
		}
	}
	f[field] = p
}

// Fields returns the filtered column names in sorted order.
func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	slices.Sort(fields)
	return fields
}

// Clone returns a shallow copy of f. Predicates are values and are never
// mutated in place, so a clone is independent of later Set calls on f.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f Filter) Canonical() any {
	out := make(map[string]any, len(f))
	for k, p := range f {
		out[k] = p.Canonical()
	}
	return out
}
