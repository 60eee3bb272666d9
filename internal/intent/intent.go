// Package intent classifies what shape of result a question asks for.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/nlq/internal/queryir"
)

var (
	countRe   = regexp.MustCompile(`\bhow many\b|\bcount\b|\bnumber of\b`)
	sumRe     = regexp.MustCompile(`\b(total|sum|total cost|total amount)\b`)
	groupByRe = regexp.MustCompile(`(?i)group(?:ed)? by\s+([a-z0-9 _-]+)`)
	topNRe    = regexp.MustCompile(`(?i)top\s+(\d+)`)
)

// StatusPhrase is the group phrase reported for the literal "by status".
const StatusPhrase = "status"

// Classification is the classifier's verdict. GroupPhrase is set for
// GroupBy and TopN for TopN.
type Classification struct {
	Intent      queryir.Intent
	GroupPhrase string
	TopN        int
}

// Rule recognizes one intent. ok is false when the rule does not apply.
type Rule struct {
	Intent queryir.Intent
	Match  func(text string) (c Classification, ok bool)
}

// DefaultRules returns the built-in rules in priority order:
// Count > Sum > GroupBy > TopN.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: queryir.IntentCount, Match: matchCount},
		{Intent: queryir.IntentSum, Match: matchSum},
		{Intent: queryir.IntentGroupBy, Match: matchGroupBy},
		{Intent: queryir.IntentTopN, Match: matchTopN},
	}
}

// Classifier evaluates rules in order; the first that applies wins.
type Classifier struct {
	Rules []Rule
}

// NewClassifier creates a Classifier with the default rules.
func NewClassifier() *Classifier {
	return &Classifier{Rules: DefaultRules()}
}

// Classify returns the first matching classification, or Default.
func (c *Classifier) Classify(text string) Classification {
	for _, r := range c.Rules {
		if cl, ok := r.Match(text); ok {
			return cl
		}
	}
	return Classification{Intent: queryir.IntentDefault}
}

func matchCount(text string) (Classification, bool) {
	if countRe.MatchString(strings.ToLower(text)) {
		return Classification{Intent: queryir.IntentCount}, true
	}
	return Classification{}, false
}

func matchSum(text string) (Classification, bool) {
	if sumRe.MatchString(strings.ToLower(text)) {
		return Classification{Intent: queryir.IntentSum}, true
	}
	return Classification{}, false
}

func matchGroupBy(text string) (Classification, bool) {
	if m := groupByRe.FindStringSubmatch(text); m != nil {
		if phrase := strings.TrimSpace(m[1]); phrase != "" {
			return Classification{Intent: queryir.IntentGroupBy, GroupPhrase: phrase}, true
		}
	}
	if strings.Contains(strings.ToLower(text), "by status") {
		return Classification{Intent: queryir.IntentGroupBy, GroupPhrase: StatusPhrase}, true
	}
	return Classification{}, false
}

func matchTopN(text string) (Classification, bool) {
	m := topNRe.FindStringSubmatch(text)
	if m == nil {
		return Classification{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return Classification{}, false
	}
	return Classification{Intent: queryir.IntentTopN, TopN: n}, true
}
