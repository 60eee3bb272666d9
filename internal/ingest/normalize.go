package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/roach88/nlq/internal/querysql"
	"github.com/roach88/nlq/internal/store"
)

// DefaultIDHints are the column-name fragments that mark identifier
// columns. Values in those columns stay strings even when they look
// numeric, so "00123" keeps its leading zeros.
func DefaultIDHints() []string {
	return []string{"ref", "tracking", "po", "so", "awb", "id"}
}

// Normalizer converts spreadsheet cells to document values.
type Normalizer struct {
	// IDHints are lowercase fragments; a column whose lowercase name
	// contains one is an identifier column.
	IDHints []string

	// Location is the zone assumed for date cells without an offset.
	Location *time.Location
}

// NewNormalizer creates a Normalizer with the default identifier hints.
// A nil loc means UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{IDHints: DefaultIDHints(), Location: loc}
}

// IsIDColumn reports whether column holds identifiers.
func (n *Normalizer) IsIDColumn(column string) bool {
	lower := strings.ToLower(column)
	for _, hint := range n.IDHints {
		if hint != "" && strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// Row builds a document from one row of cells. Missing trailing cells are
// blank.
func (n *Normalizer) Row(columns, cells []string) store.Document {
	var doc store.Document
	for i, col := range columns {
		var raw string
		if i < len(cells) {
			raw = cells[i]
		}
		doc.Set(col, n.Cell(col, raw))
	}
	return doc
}

// Cell converts one cell:
//   - blank cells are null
//   - identifier columns keep the text
//   - numeric text becomes int64 or float64
//   - date text becomes a UTC timestamp string
//   - anything else stays text
func (n *Normalizer) Cell(column, raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if n.IsIDColumn(column) {
		return s
	}
	if num, ok := ParseNumber(s); ok {
		return num
	}
	if t, ok := n.ParseDate(s); ok {
		return querysql.FormatTime(t)
	}
	return s
}

var numberRe = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)$`)

// ParseNumber parses numeric text with optional sign, decimals and comma
// thousands separators. Integers that do not fit in int64 are not numbers.
func ParseNumber(s string) (any, bool) {
	plain := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if !numberRe.MatchString(plain) {
		return nil, false
	}
	if strings.Contains(plain, ".") {
		f, err := strconv.ParseFloat(plain, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	i, err := strconv.ParseInt(plain, 10, 64)
	if err != nil {
		return nil, false
	}
	return i, true
}

// ParseDate parses date text in any format dateparse recognizes.
func (n *Normalizer) ParseDate(s string) (time.Time, bool) {
	t, err := dateparse.ParseIn(s, n.Location)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Columns turns a header row into unique column names. Blank headers
// become "Unnamed: <index>"; repeats get a ".<n>" suffix.
func Columns(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for seen[name] > 0 {
			name = fmt.Sprintf("%s.%d", base, seen[base])
			seen[base]++
		}
		seen[name]++
		out[i] = name
	}
	return out
}
