package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/nlq/internal/config"
	"github.com/roach88/nlq/internal/ingest"
	"github.com/roach88/nlq/internal/ir"
	"github.com/roach88/nlq/internal/store"
	"github.com/roach88/nlq/internal/translate"
)

// scenarioBatchID is the fixed batch ID scenario rows are written under.
const scenarioBatchID = "00000000-0000-7000-8000-000000000000"

// Harness is the test execution engine for one scenario.
type Harness struct {
	store      *store.Store
	translator *translate.Translator
	collection string
	columns    []string
	now        time.Time
	seeded     bool
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. The translator's
// clock is frozen at the scenario's "now", so results are reproducible.
// An error is returned only when the scenario cannot be set up; failed
// assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	cfg := config.Default()
	if scenario.Config != "" {
		loaded, err := config.LoadFile(scenario.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	loc := cfg.Location()
	if scenario.Timezone != "" {
		l, err := time.LoadLocation(scenario.Timezone)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone: %w", err)
		}
		loc = l
	}

	now, err := time.Parse(time.RFC3339, scenario.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to parse now: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	collection := scenario.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	h := &Harness{
		store: st,
		translator: translate.New(cfg,
			translate.WithLocation(loc),
			translate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		),
		collection: collection,
		columns:    scenario.Columns,
		now:        now.In(loc),
	}

	ctx := context.Background()
	if len(scenario.Rows) > 0 {
		if err := h.seed(ctx, scenario, loc); err != nil {
			return nil, fmt.Errorf("failed to load rows: %w", err)
		}
	}

	result := NewResult()
	for i, c := range scenario.Cases {
		out, err := h.runCase(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("cases[%d]: %w", i, err)
		}
		result.Outputs = append(result.Outputs, out)

		for _, msg := range EvaluateAssertions(out, c.Assertions) {
			result.AddError(fmt.Sprintf("cases[%d] %q: %s", i, c.Text, msg))
		}
	}

	return result, nil
}

// seed normalizes the scenario rows and writes them as one batch.
func (h *Harness) seed(ctx context.Context, scenario *Scenario, loc *time.Location) error {
	normalizer := ingest.NewNormalizer(loc)
	batch := store.Batch{
		ID:         scenarioBatchID,
		Collection: h.collection,
		Source:     scenario.Name,
		Columns:    scenario.Columns,
		Documents:  make([]store.Document, 0, len(scenario.Rows)),
		CreatedAt:  h.now,
	}
	for _, row := range scenario.Rows {
		batch.Documents = append(batch.Documents, normalizer.Row(scenario.Columns, row))
	}
	if err := h.store.InsertDocuments(ctx, batch); err != nil {
		return err
	}
	h.seeded = true
	return nil
}

// runCase translates one case and, when rows were loaded, executes it.
func (h *Harness) runCase(ctx context.Context, c Case) (CaseOutput, error) {
	desc := h.translator.TranslateAt(translate.Request{
		Text:         c.Text,
		Columns:      h.columns,
		DateOverride: c.DateField,
		CostOverride: c.CostField,
	}, h.now)

	id, err := desc.ID()
	if err != nil {
		return CaseOutput{}, fmt.Errorf("failed to hash description: %w", err)
	}

	canonical, err := canonicalMap(desc)
	if err != nil {
		return CaseOutput{}, err
	}

	out := CaseOutput{
		Text:        c.Text,
		QueryID:     id,
		Description: desc,
		Canonical:   canonical,
	}

	if h.seeded {
		res, err := h.store.Execute(ctx, h.collection, desc)
		if err != nil {
			out.ExecError = err
		} else {
			out.Execution = &res
		}
	}
	return out, nil
}

// canonicalMap decodes v's canonical JSON into plain maps.
func canonicalMap(v any) (map[string]any, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal canonical JSON: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode canonical JSON: %w", err)
	}
	return m, nil
}
