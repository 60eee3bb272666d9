// Package predicate extracts location, status and numeric comparison
// conditions from free text.
package predicate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/nlq/internal/fields"
	"github.com/roach88/nlq/internal/queryir"
)

// DefaultStatuses is the status vocabulary recognized in text, in the order
// matches are reported.
func DefaultStatuses() []string {
	return []string{"delivered", "pending", "in transit", "cancelled", "returned", "booked", "shipped"}
}

var (
	fromRe       = regexp.MustCompile(`(?i)\bfrom\s+([A-Za-z0-9\-\s,]+?)(?:\s+to\b|$)`)
	toRe         = regexp.MustCompile(`(?i)\bto\s+([A-Za-z0-9\-\s,]+?)(?:\s+with\b|$)`)
	comparisonRe = regexp.MustCompile(`([A-Za-z _#\-]{2,40})\s*(>=|<=|>|<|=)\s*([0-9,\.]+)`)
)

// Number is the result of parsing a numeric literal from text. Raw keeps
// the original literal so callers can report what failed to parse.
type Number struct {
	Raw   string
	Value float64
	Valid bool
}

// ParseNumber strips thousands separators and parses s as a float64.
func ParseNumber(s string) Number {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return Number{Raw: s}
	}
	return Number{Raw: s, Value: v, Valid: true}
}

// Comparison is one "phrase op number" triple found in text.
type Comparison struct {
	Phrase string
	Op     queryir.CmpOp
	Number Number
}

// Extractor turns text into filter predicates against a column schema.
type Extractor struct {
	Fields   fields.Resolver
	Statuses []string

	statusRes []*regexp.Regexp
}

// NewExtractor compiles the status vocabulary once.
func NewExtractor(keywords fields.KeywordTable, statuses []string) *Extractor {
	e := &Extractor{
		Fields:   fields.NewResolver(keywords),
		Statuses: statuses,
	}
	for _, s := range statuses {
		e.statusRes = append(e.statusRes, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(s)+`\b`))
	}
	return e
}

// Extract returns the location, status and comparison predicates in text.
// Conditions whose column cannot be resolved are dropped.
func (e *Extractor) Extract(text string, columns []string, costOverride string) queryir.Filter {
	filter := queryir.Filter{}
	e.extractLocations(text, columns, filter)
	e.extractStatuses(text, columns, filter)
	e.extractComparisons(text, columns, costOverride, filter)
	return filter
}

func (e *Extractor) extractLocations(text string, columns []string, filter queryir.Filter) {
	if m := fromRe.FindStringSubmatch(text); m != nil {
		if field, ok := e.Fields.Resolve(columns, fields.RoleOrigin); ok {
			filter.Set(field, locationMatch(m[1]))
		}
	}
	if m := toRe.FindStringSubmatch(text); m != nil {
		if field, ok := e.Fields.Resolve(columns, fields.RoleDestination); ok {
			filter.Set(field, locationMatch(m[1]))
		}
	}
}

// locationMatch builds a substring match for a captured place name. The
// capture is quoted so it always matches literally.
func locationMatch(capture string) queryir.Regex {
	return queryir.Regex{
		Pattern:         regexp.QuoteMeta(strings.TrimSpace(capture)),
		CaseInsensitive: true,
	}
}

// StatusesIn returns the vocabulary words present in text as whole words.
func (e *Extractor) StatusesIn(text string) []string {
	var found []string
	for i, re := range e.statusRes {
		if re.MatchString(text) {
			found = append(found, e.Statuses[i])
		}
	}
	return found
}

func (e *Extractor) extractStatuses(text string, columns []string, filter queryir.Filter) {
	found := e.StatusesIn(text)
	if len(found) == 0 {
		return
	}
	if field, ok := e.Fields.Resolve(columns, fields.RoleStatus); ok {
		filter.Set(field, queryir.In{Values: found})
	}
}

// Comparisons returns every comparison triple in text, including those
// whose number does not parse.
func Comparisons(text string) []Comparison {
	var out []Comparison
	for _, m := range comparisonRe.FindAllStringSubmatch(text, -1) {
		op, ok := queryir.ParseCmpOp(m[2])
		if !ok {
			continue
		}
		out = append(out, Comparison{
			Phrase: strings.TrimSpace(m[1]),
			Op:     op,
			Number: ParseNumber(m[3]),
		})
	}
	return out
}

func (e *Extractor) extractComparisons(text string, columns []string, costOverride string, filter queryir.Filter) {
	for _, c := range Comparisons(text) {
		if !c.Number.Valid {
			continue
		}
		field, ok := e.comparisonField(columns, c.Phrase, costOverride)
		if !ok {
			continue
		}
		filter.Set(field, queryir.Compare{Ops: map[queryir.CmpOp]float64{c.Op: c.Number.Value}})
	}
}

// comparisonField resolves the phrase directly against the schema and falls
// back to the cost column.
func (e *Extractor) comparisonField(columns []string, phrase, costOverride string) (string, bool) {
	if field, ok := fields.Phrase(columns, phrase); ok {
		return field, true
	}
	return e.Fields.ResolveWithOverride(columns, fields.RoleCost, costOverride)
}
