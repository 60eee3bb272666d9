package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/roach88/nlq/internal/queryir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against one case output.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(out CaseOutput, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertIntent:
			err = assertIntent(out, assertion)
		case AssertFilterHas:
			err = assertFilterHas(out, assertion)
		case AssertFilterAbsent:
			err = assertFilterAbsent(out, assertion)
		case AssertMatches:
			err = assertMatches(out, assertion)
		case AssertStageOrder:
			err = assertStageOrder(out, assertion)
		case AssertPlanValid:
			err = assertPlanValid(out)
		case AssertResultCount:
			err = assertResultCount(out, assertion)
		case AssertFirstRow:
			err = assertFirstRow(out, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertIntent(out CaseOutput, a Assertion) error {
	if got := string(out.Description.Intent); got != a.Intent {
		return &AssertionError{Type: AssertIntent, Expected: a.Intent, Actual: got}
	}
	return nil
}

func assertFilterHas(out CaseOutput, a Assertion) error {
	p, ok := out.Description.Filter[a.Field]
	if !ok {
		return &AssertionError{
			Type:     AssertFilterHas,
			Expected: fmt.Sprintf("filter on %q", a.Field),
			Actual:   fmt.Sprintf("filtered fields %v", out.Description.Filter.Fields()),
		}
	}
	if a.Kind != "" {
		if got := PredicateKind(p); got != a.Kind {
			return &AssertionError{
				Type:     AssertFilterHas,
				Expected: fmt.Sprintf("%s predicate on %q", a.Kind, a.Field),
				Actual:   fmt.Sprintf("%s predicate", got),
			}
		}
	}
	return nil
}

func assertFilterAbsent(out CaseOutput, a Assertion) error {
	if p, ok := out.Description.Filter[a.Field]; ok {
		return &AssertionError{
			Type:     AssertFilterAbsent,
			Expected: fmt.Sprintf("no filter on %q", a.Field),
			Actual:   fmt.Sprintf("%s predicate", PredicateKind(p)),
		}
	}
	return nil
}

func assertMatches(out CaseOutput, a Assertion) error {
	if !matchSubset(out.Canonical, a.Expect) {
		return &AssertionError{
			Type:     AssertMatches,
			Expected: fmt.Sprintf("description containing %v", a.Expect),
			Actual:   fmt.Sprintf("%v", out.Canonical),
		}
	}
	return nil
}

func assertStageOrder(out CaseOutput, a Assertion) error {
	var got []string
	if agg := out.Description.Aggregation; agg != nil {
		got = StageNames(*agg)
	}
	if !slices.Equal(got, a.Stages) {
		return &AssertionError{
			Type:     AssertStageOrder,
			Expected: strings.Join(a.Stages, " -> "),
			Actual:   strings.Join(got, " -> "),
		}
	}
	return nil
}

func assertPlanValid(out CaseOutput) error {
	agg := out.Description.Aggregation
	if agg == nil {
		return nil
	}
	if v := queryir.Validate(*agg); !v.Valid {
		return &AssertionError{
			Type:     AssertPlanValid,
			Expected: "valid aggregation plan",
			Actual:   strings.Join(v.Problems, "; "),
		}
	}
	return nil
}

func assertResultCount(out CaseOutput, a Assertion) error {
	if out.ExecError != nil {
		return &AssertionError{
			Type:     AssertResultCount,
			Expected: fmt.Sprintf("%d results", *a.Count),
			Actual:   fmt.Sprintf("execution failed: %v", out.ExecError),
		}
	}
	if out.Execution == nil {
		return fmt.Errorf("result_count: case was not executed")
	}

	got := int64(len(out.Execution.Rows))
	if out.Execution.Count != nil {
		got = *out.Execution.Count
	}
	if got != int64(*a.Count) {
		return &AssertionError{
			Type:     AssertResultCount,
			Expected: fmt.Sprintf("%d results", *a.Count),
			Actual:   fmt.Sprintf("%d results", got),
		}
	}
	return nil
}

func assertFirstRow(out CaseOutput, a Assertion) error {
	if out.ExecError != nil {
		return &AssertionError{
			Type:     AssertFirstRow,
			Expected: fmt.Sprintf("first row containing %v", a.Expect),
			Actual:   fmt.Sprintf("execution failed: %v", out.ExecError),
		}
	}
	if out.Execution == nil || len(out.Execution.Rows) == 0 {
		return &AssertionError{
			Type:     AssertFirstRow,
			Expected: fmt.Sprintf("first row containing %v", a.Expect),
			Actual:   "no rows",
		}
	}

	row := out.Execution.Rows[0].Values
	if !matchSubset(row, a.Expect) {
		return &AssertionError{
			Type:     AssertFirstRow,
			Expected: fmt.Sprintf("first row containing %v", a.Expect),
			Actual:   fmt.Sprintf("%v", row),
		}
	}
	return nil
}

// PredicateKind names a predicate's type the way scenarios spell it.
func PredicateKind(p queryir.Predicate) string {
	switch p.(type) {
	case queryir.Equals:
		return "equals"
	case queryir.In:
		return "in"
	case queryir.Regex:
		return "regex"
	case queryir.Compare:
		return "compare"
	case queryir.TimeRange:
		return "time_range"
	default:
		return fmt.Sprintf("%T", p)
	}
}

// StageNames lists the kind of each stage in plan order.
func StageNames(agg queryir.Aggregation) []string {
	names := make([]string, len(agg.Stages))
	for i, s := range agg.Stages {
		switch s.(type) {
		case queryir.Match:
			names[i] = "match"
		case queryir.AddComputedField:
			names[i] = "addComputedField"
		case queryir.Group:
			names[i] = "group"
		case queryir.Sort:
			names[i] = "sort"
		case queryir.Limit:
			names[i] = "limit"
		case queryir.ExcludeProjection:
			names[i] = "excludeProjection"
		default:
			names[i] = fmt.Sprintf("%T", s)
		}
	}
	return names
}

// matchSubset reports whether every key of expected is present in actual
// with a matching value. Extra keys in actual are OK.
func matchSubset(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares a decoded actual value with a YAML-decoded
// expected value. Numbers compare by value across int and float types,
// nested maps use subset semantics and YAML timestamps compare as
// instants.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if e, ok := toFloat(expected); ok {
		a, ok := toFloat(actual)
		return ok && a == e
	}

	switch e := expected.(type) {
	case time.Time:
		s, ok := actual.(string)
		if !ok {
			return false
		}
		a, err := time.Parse(time.RFC3339Nano, s)
		return err == nil && a.Equal(e)
	case map[string]any:
		a, ok := actual.(map[string]any)
		return ok && matchSubset(a, e)
	case []any:
		a, ok := actual.([]any)
		if !ok || len(a) != len(e) {
			return false
		}
		for i := range e {
			if !valuesEqual(a[i], e[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(actual, expected)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
