// Package temporal resolves relative and explicit date phrases into time
// windows anchored to an injected "now".
package temporal

import (
	"log/slog"
	"time"

	"github.com/roach88/nlq/internal/fields"
	"github.com/roach88/nlq/internal/queryir"
)

// DefaultZone is the zone relative phrases are evaluated in.
const DefaultZone = "Asia/Kolkata"

// LoadZone loads name, falling back to the local zone when zone data is
// unavailable.
func LoadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("time zone unavailable, using local zone", "zone", name, "error", err)
		return time.Local
	}
	return loc
}

// Outcome reports how a rule handled the text.
type Outcome int

const (
	// NoMatch means the rule did not recognize the text; the next rule runs.
	NoMatch Outcome = iota

	// Matched means the rule recognized the text and built a window.
	Matched

	// Rejected means the rule recognized the text but its contents were
	// unusable (a malformed date, a zero day count). No later rule runs.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Rejected:
		return "rejected"
	default:
		return "no_match"
	}
}

// Window is a time interval. Start is inclusive; End is exclusive unless
// Closed is set.
type Window struct {
	Start  time.Time
	End    time.Time
	Closed bool
}

// Rule recognizes one family of phrases. now is already in the resolver's
// zone.
type Rule struct {
	Name  string
	Apply func(text string, now time.Time) (Window, Outcome)
}

// Result is the outcome of resolving one text.
type Result struct {
	Range   queryir.TimeRange
	Rule    string
	Outcome Outcome
}

// OK reports whether a time range was produced.
func (r Result) OK() bool {
	return r.Outcome == Matched
}

// Resolver evaluates an ordered rule list against text.
type Resolver struct {
	Fields   fields.Resolver
	Location *time.Location
	Rules    []Rule
}

// NewResolver creates a Resolver with the default rules. A nil loc means
// DefaultZone.
func NewResolver(keywords fields.KeywordTable, loc *time.Location) *Resolver {
	if loc == nil {
		loc = LoadZone(DefaultZone)
	}
	return &Resolver{
		Fields:   fields.NewResolver(keywords),
		Location: loc,
		Rules:    DefaultRules(loc),
	}
}

// Resolve returns the time range the text asks for on the date column.
// Without a date column (override or heuristic) there is no range. The
// first rule that does not return NoMatch decides the outcome.
func (r *Resolver) Resolve(text string, columns []string, dateOverride string, now time.Time) Result {
	field, ok := r.Fields.ResolveWithOverride(columns, fields.RoleDate, dateOverride)
	if !ok {
		return Result{Outcome: NoMatch}
	}

	local := now.In(r.Location)
	for _, rule := range r.Rules {
		w, outcome := rule.Apply(text, local)
		switch outcome {
		case NoMatch:
			continue
		case Rejected:
			return Result{Rule: rule.Name, Outcome: Rejected}
		}
		return Result{
			Range: queryir.TimeRange{
				Field:  field,
				Start:  w.Start,
				End:    w.End,
				Closed: w.Closed,
			},
			Rule:    rule.Name,
			Outcome: Matched,
		}
	}
	return Result{Outcome: NoMatch}
}
