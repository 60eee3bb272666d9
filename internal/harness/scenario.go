package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCollection is the collection scenario rows are loaded into.
const DefaultCollection = "scenario"

// Scenario defines a translation test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the RFC 3339 instant relative phrases are evaluated at.
	Now string `yaml:"now"`

	// Timezone overrides the configured zone (IANA name).
	Timezone string `yaml:"timezone,omitempty"`

	// Config is an optional CUE configuration file. Relative paths are
	// resolved against the scenario file's directory.
	Config string `yaml:"config,omitempty"`

	// Collection names the collection rows are loaded into.
	// Defaults to DefaultCollection.
	Collection string `yaml:"collection,omitempty"`

	// Columns is the column schema every case is translated against.
	Columns []string `yaml:"columns"`

	// Rows are raw spreadsheet cells, one slice per row in column order.
	// They are normalized the way ingest normalizes a workbook.
	Rows [][]string `yaml:"rows,omitempty"`

	// Cases are translated in order.
	Cases []Case `yaml:"cases"`
}

// Case is one question and what its translation must satisfy.
type Case struct {
	// Text is the natural-language question.
	Text string `yaml:"text"`

	// DateField and CostField are explicit column overrides.
	DateField string `yaml:"date_field,omitempty"`
	CostField string `yaml:"cost_field,omitempty"`

	// Assertions validate the translation and, when rows exist, its result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a case's output.
type Assertion struct {
	// Type specifies the assertion type:
	// - "intent": the description's intent equals Intent
	// - "filter_has": Field is filtered, with a Kind predicate if given
	// - "filter_absent": Field is not filtered
	// - "matches": the canonical description contains Expect (subset match)
	// - "stage_order": the aggregation stages are exactly Stages
	// - "plan_valid": the aggregation, if any, passes plan validation
	// - "result_count": executing returns Count documents (or the count)
	// - "first_row": the first result row contains Expect (subset match)
	Type string `yaml:"type"`

	// Intent is the expected intent (used by intent).
	Intent string `yaml:"intent,omitempty"`

	// Field is the filtered column (used by filter_has and filter_absent).
	Field string `yaml:"field,omitempty"`

	// Kind is the expected predicate kind (used by filter_has): equals,
	// in, regex, compare or time_range.
	Kind string `yaml:"kind,omitempty"`

	// Expect holds expected values (used by matches and first_row).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Stages is the expected stage sequence (used by stage_order).
	Stages []string `yaml:"stages,omitempty"`

	// Count is the expected result size (used by result_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertIntent       = "intent"
	AssertFilterHas    = "filter_has"
	AssertFilterAbsent = "filter_absent"
	AssertMatches      = "matches"
	AssertStageOrder   = "stage_order"
	AssertPlanValid    = "plan_valid"
	AssertResultCount  = "result_count"
	AssertFirstRow     = "first_row"
)

var predicateKinds = map[string]bool{
	"equals":     true,
	"in":         true,
	"regex":      true,
	"compare":    true,
	"time_range": true,
}

// LoadScenario reads and parses a scenario YAML file. A relative config
// path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Now == "" {
		return fmt.Errorf("now is required")
	}
	if _, err := time.Parse(time.RFC3339, s.Now); err != nil {
		return fmt.Errorf("now must be RFC 3339: %w", err)
	}

	if len(s.Columns) == 0 {
		return fmt.Errorf("columns list is required and must be non-empty")
	}

	for i, row := range s.Rows {
		if len(row) > len(s.Columns) {
			return fmt.Errorf("rows[%d]: has %d cells for %d columns", i, len(row), len(s.Columns))
		}
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, c := range s.Cases {
		if c.Text == "" {
			return fmt.Errorf("cases[%d]: text is required", i)
		}
		if len(c.Assertions) == 0 {
			return fmt.Errorf("cases[%d]: assertions list is required and must be non-empty", i)
		}
		for j := range c.Assertions {
			if err := validateAssertion(i, j, &c.Assertions[j], len(s.Rows) > 0); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(caseIndex, index int, a *Assertion, hasRows bool) error {
	prefix := fmt.Sprintf("cases[%d].assertions[%d]", caseIndex, index)
	if a.Type == "" {
		return fmt.Errorf("%s: type is required", prefix)
	}

	switch a.Type {
	case AssertIntent:
		if a.Intent == "" {
			return fmt.Errorf("%s: intent requires 'intent' field", prefix)
		}
	case AssertFilterHas:
		if a.Field == "" {
			return fmt.Errorf("%s: filter_has requires 'field' field", prefix)
		}
		if a.Kind != "" && !predicateKinds[a.Kind] {
			return fmt.Errorf("%s: unknown predicate kind %q", prefix, a.Kind)
		}
	case AssertFilterAbsent:
		if a.Field == "" {
			return fmt.Errorf("%s: filter_absent requires 'field' field", prefix)
		}
	case AssertMatches:
		if len(a.Expect) == 0 {
			return fmt.Errorf("%s: matches requires 'expect' field", prefix)
		}
	case AssertStageOrder:
		if len(a.Stages) == 0 {
			return fmt.Errorf("%s: stage_order requires 'stages' field", prefix)
		}
	case AssertPlanValid:
	case AssertResultCount:
		if a.Count == nil {
			return fmt.Errorf("%s: result_count requires 'count' field", prefix)
		}
		if *a.Count < 0 {
			return fmt.Errorf("%s: count must be non-negative", prefix)
		}
		if !hasRows {
			return fmt.Errorf("%s: result_count requires scenario rows", prefix)
		}
	case AssertFirstRow:
		if len(a.Expect) == 0 {
			return fmt.Errorf("%s: first_row requires 'expect' field", prefix)
		}
		if !hasRows {
			return fmt.Errorf("%s: first_row requires scenario rows", prefix)
		}
	default:
		return fmt.Errorf("%s: unknown assertion type %q", prefix, a.Type)
	}

	return nil
}
