// Package translate assembles the query description for a natural-language
// question.
//
// The Translator is a pure function of its Request and the injected clock:
// it never performs I/O, never returns an error, and is safe for concurrent
// use. Heuristics that fail simply leave their piece out of the result.
package translate

import (
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/nlq/internal/clock"
	"github.com/roach88/nlq/internal/config"
	"github.com/roach88/nlq/internal/fields"
	"github.com/roach88/nlq/internal/intent"
	"github.com/roach88/nlq/internal/predicate"
	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/temporal"
)

// Request is one translation input.
type Request struct {
	Text         string
	Columns      []string
	DateOverride string
	CostOverride string
}

// Translator turns requests into query descriptions.
type Translator struct {
	fields     fields.Resolver
	temporal   *temporal.Resolver
	predicates *predicate.Extractor
	classifier *intent.Classifier
	clock      clock.Clock
	limit      int
	logger     *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithClock sets the "now" source. The default is the system clock.
func WithClock(c clock.Clock) Option {
	return func(t *Translator) {
		t.clock = c
	}
}

// WithLocation overrides the configured time zone.
func WithLocation(loc *time.Location) Option {
	return func(t *Translator) {
		t.temporal.Location = loc
		t.temporal.Rules = temporal.DefaultRules(loc)
	}
}

// WithLogger sets the logger used for rule-level debug output.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = l
	}
}

// New creates a Translator from cfg.
func New(cfg config.Config, opts ...Option) *Translator {
	limit := cfg.DefaultLimit
	if limit < 1 {
		limit = queryir.DefaultLimit
	}
	t := &Translator{
		fields:     fields.NewResolver(cfg.Keywords),
		temporal:   temporal.NewResolver(cfg.Keywords, cfg.Location()),
		predicates: predicate.NewExtractor(cfg.Keywords, cfg.Statuses),
		classifier: intent.NewClassifier(),
		clock:      clock.System{},
		limit:      limit,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate builds the query description for req at the clock's "now".
func (t *Translator) Translate(req Request) queryir.QueryDescription {
	return t.TranslateAt(req, t.clock.Now())
}

// TranslateAt builds the query description for req anchored at now.
func (t *Translator) TranslateAt(req Request, now time.Time) queryir.QueryDescription {
	text := strings.TrimSpace(norm.NFC.String(req.Text))

	filter := t.predicates.Extract(text, req.Columns, req.CostOverride)

	tr := t.temporal.Resolve(text, req.Columns, req.DateOverride, now)
	switch tr.Outcome {
	case temporal.Matched:
		filter[tr.Range.Field] = tr.Range
		t.logger.Debug("temporal rule matched", "rule", tr.Rule, "field", tr.Range.Field)
	case temporal.Rejected:
		t.logger.Debug("temporal rule rejected text", "rule", tr.Rule)
	}

	desc := queryir.QueryDescription{
		Filter: filter,
		Limit:  t.limit,
		Intent: queryir.IntentDefault,
	}

	cl := t.classifier.Classify(text)
	t.logger.Debug("intent classified", "intent", cl.Intent, "group", cl.GroupPhrase, "top", cl.TopN)

	switch cl.Intent {
	case queryir.IntentCount:
		desc.IsCount = true
		desc.Intent = queryir.IntentCount
		if id, ok := t.fields.Resolve(req.Columns, fields.RoleIdentifier); ok {
			desc.DistinctField = id
		}
		return desc
	case queryir.IntentSum, queryir.IntentGroupBy, queryir.IntentTopN:
		agg, ok := t.aggregation(cl, filter, req)
		if !ok {
			t.logger.Debug("intent downgraded", "intent", cl.Intent, "to", queryir.IntentDefault)
			return desc
		}
		desc.Intent = cl.Intent
		desc.Aggregation = agg
	}
	return desc
}

// aggregation builds the plan for an aggregating intent. ok is false when
// a column the plan needs cannot be resolved.
func (t *Translator) aggregation(cl intent.Classification, filter queryir.Filter, req Request) (*queryir.Aggregation, bool) {
	cost, ok := t.fields.ResolveWithOverride(req.Columns, fields.RoleCost, req.CostOverride)
	if !ok {
		return nil, false
	}

	switch cl.Intent {
	case queryir.IntentSum:
		return SumPlan(filter, cost), true
	case queryir.IntentGroupBy:
		group, ok := t.groupField(req.Columns, cl.GroupPhrase)
		if !ok {
			return nil, false
		}
		return GroupCostPlan(filter, group, cost), true
	case queryir.IntentTopN:
		return TopPlan(filter, cost, cl.TopN), true
	}
	return nil, false
}

// groupField resolves a group-by phrase. Phrases naming the status go
// through the status role first.
func (t *Translator) groupField(columns []string, phrase string) (string, bool) {
	switch strings.ToLower(phrase) {
	case "status", "delivery status", "shipment status":
		if field, ok := t.fields.Resolve(columns, fields.RoleStatus); ok {
			return field, true
		}
	}
	return fields.Phrase(columns, phrase)
}
