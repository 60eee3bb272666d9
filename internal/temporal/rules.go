package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rule names, in evaluation order.
const (
	RuleBetween   = "between"
	RuleMonth     = "this_month"
	RuleYear      = "this_year"
	RuleWeek      = "this_week"
	RuleLastNDays = "last_n_days"
	RuleLastWeek  = "last_seven_days"
)

const dateLayout = "2006-01-02"

var (
	betweenRe   = regexp.MustCompile(`(?i)between\s+(\d{4}-\d{2}-\d{2})\s+and\s+(\d{4}-\d{2}-\d{2})`)
	lastNDaysRe = regexp.MustCompile(`(?i)last\s+(\d+)\s+days?`)
	lastWeekRe  = regexp.MustCompile(`(?i)\b(?:last|past)\s+(?:7|seven)\s+days?\b`)
)

// DefaultRules returns the built-in rules. Order is significant: the first
// rule that recognizes the text decides.
//
// "last 7 days" is handled by the generic day-count rule; the seven-day
// rule after it only catches the phrasings that rule cannot ("past 7
// days", "last seven days").
func DefaultRules(loc *time.Location) []Rule {
	return []Rule{
		{Name: RuleBetween, Apply: betweenRule(loc)},
		{Name: RuleMonth, Apply: phraseRule([]string{"this month", "current month"}, monthWindow)},
		{Name: RuleYear, Apply: phraseRule([]string{"this year", "current year"}, yearWindow)},
		{Name: RuleWeek, Apply: phraseRule([]string{"this week", "current week"}, weekWindow)},
		{Name: RuleLastNDays, Apply: lastNDaysRule},
		{Name: RuleLastWeek, Apply: lastSevenDaysRule},
	}
}

// betweenRule matches "between YYYY-MM-DD and YYYY-MM-DD" as a closed range
// of midnights in loc.
func betweenRule(loc *time.Location) func(string, time.Time) (Window, Outcome) {
	return func(text string, _ time.Time) (Window, Outcome) {
		m := betweenRe.FindStringSubmatch(text)
		if m == nil {
			return Window{}, NoMatch
		}
		start, err := time.ParseInLocation(dateLayout, m[1], loc)
		if err != nil {
			return Window{}, Rejected
		}
		end, err := time.ParseInLocation(dateLayout, m[2], loc)
		if err != nil {
			return Window{}, Rejected
		}
		return Window{Start: start, End: end, Closed: true}, Matched
	}
}

// phraseRule matches any of phrases as a case-insensitive substring.
func phraseRule(phrases []string, window func(time.Time) Window) func(string, time.Time) (Window, Outcome) {
	return func(text string, now time.Time) (Window, Outcome) {
		lower := strings.ToLower(text)
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return window(now), Matched
			}
		}
		return Window{}, NoMatch
	}
}

func monthWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

func yearWindow(now time.Time) Window {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(1, 0, 0)}
}

// weekWindow starts on Monday.
func weekWindow(now time.Time) Window {
	sinceMonday := (int(now.Weekday()) + 6) % 7
	start := midnight(now.AddDate(0, 0, -sinceMonday))
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

func lastNDaysRule(text string, now time.Time) (Window, Outcome) {
	m := lastNDaysRe.FindStringSubmatch(text)
	if m == nil {
		return Window{}, NoMatch
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return Window{}, Rejected
	}
	return lastDays(now, n), Matched
}

func lastSevenDaysRule(text string, now time.Time) (Window, Outcome) {
	if !lastWeekRe.MatchString(text) {
		return Window{}, NoMatch
	}
	return lastDays(now, 7), Matched
}

// lastDays runs from midnight n days ago up to now.
func lastDays(now time.Time, n int) Window {
	return Window{Start: midnight(now.AddDate(0, 0, -n)), End: now}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
