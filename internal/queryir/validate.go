package queryir

import (
	"fmt"
	"slices"
)

// ValidationResult contains the problems found in a plan.
type ValidationResult struct {
	// Valid is true when the plan can be executed as written.
	Valid bool

	// Problems lists every rule the plan breaks, in stage order.
	Problems []string
}

// Validate checks an aggregation plan against the stage ordering rules
// every backend relies on:
//  1. A plan has at least one stage
//  2. A match may follow a group (it then filters groups) but never a
//     sort, limit, computed field or projection
//  3. At most one group; after it only the key and accumulator names exist
//  4. A sort field must exist at that point in the plan
//  5. Limits are positive
//  6. An exclude projection is the last stage
//
// Validate is a pure function with no side effects.
func Validate(agg Aggregation) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate(agg)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(agg Aggregation) {
	if len(agg.Stages) == 0 {
		v.addProblem("empty plan - at least one stage is required")
		return
	}

	var (
		grouped   bool
		groupCols []string
		reordered bool // a sort, limit, computed field or projection was seen
	)

	for i, stage := range agg.Stages {
		switch s := stage.(type) {
		case Match:
			if reordered {
				v.addProblem("stage %d: match after sort/limit/computed field/projection", i)
			}
			if grouped {
				for _, field := range s.Filter.Fields() {
					if !slices.Contains(groupCols, field) {
						v.addProblem("stage %d: match on %q after group - only %v exist", i, field, groupCols)
					}
				}
			}
		case Group:
			if grouped {
				v.addProblem("stage %d: second group - at most one group per plan", i)
			}
			if reordered {
				v.addProblem("stage %d: group after sort/limit/computed field/projection", i)
			}
			if len(s.Accumulators) == 0 {
				v.addProblem("stage %d: group without accumulators", i)
			}
			for _, a := range s.Accumulators {
				if a.Op != AccCount && a.Input == nil {
					v.addProblem("stage %d: accumulator %q needs an input", i, a.Name)
				}
			}
			grouped = true
			groupCols = append([]string{GroupKeyField}, s.AccumulatorNames()...)
		case AddComputedField:
			if grouped {
				v.addProblem("stage %d: computed field after group", i)
			}
			if s.Name == "" {
				v.addProblem("stage %d: computed field without a name", i)
			}
			reordered = true
		case Sort:
			if grouped && !slices.Contains(groupCols, s.Field) {
				v.addProblem("stage %d: sort on %q after group - only %v exist", i, s.Field, groupCols)
			}
			if s.Direction != Asc && s.Direction != Desc {
				v.addProblem("stage %d: unknown sort direction %q", i, s.Direction)
			}
			reordered = true
		case Limit:
			if s.N < 1 {
				v.addProblem("stage %d: limit must be positive, got %d", i, s.N)
			}
			reordered = true
		case ExcludeProjection:
			if i != len(agg.Stages)-1 {
				v.addProblem("stage %d: exclude projection must be the last stage", i)
			}
			if len(s.Fields) == 0 {
				v.addProblem("stage %d: exclude projection without fields", i)
			}
			reordered = true
		case nil:
			v.addProblem("stage %d: nil stage", i)
		default:
			v.addProblem("stage %d: unknown stage type %T", i, stage)
		}
	}
}
