// Package fields maps semantic roles onto the column names of a
// runtime-discovered schema.
package fields

import "strings"

// Role is a semantic column category.
type Role string

const (
	RoleIdentifier  Role = "identifier"
	RoleDate        Role = "date"
	RoleCost        Role = "cost"
	RoleStatus      Role = "status"
	RoleOrigin      Role = "origin"
	RoleDestination Role = "destination"
)

// Roles lists every role in reporting order.
var Roles = []Role{RoleIdentifier, RoleDate, RoleCost, RoleStatus, RoleOrigin, RoleDestination}

// KeywordTable holds the ordered candidate substrings for each role.
// Earlier keywords win over later ones regardless of column order, except
// for Identifier, where the first column carrying any keyword wins.
type KeywordTable struct {
	Identifier  []string
	Date        []string
	Cost        []string
	Status      []string
	Origin      []string
	Destination []string
}

// DefaultKeywords returns the built-in keyword priorities for shipment
// spreadsheets.
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		Identifier: []string{"ref", "reference", "awb"},
		Date:       []string{"ship date", "ship", "created", "date", "delivered", "etd"},
		Cost: []string{
			"discount", "discounted cost", "published cost", "published",
			"marked up", "marked", "cost", "amount", "charge", "price", "freight",
		},
		Status:      []string{"status", "delivery status", "shipment type"},
		Origin:      []string{"origin", "from", "location"},
		Destination: []string{"destination", "to", "to company", "to id"},
	}
}

// For returns the keywords for role. Unknown roles have none.
func (t KeywordTable) For(role Role) []string {
	switch role {
	case RoleIdentifier:
		return t.Identifier
	case RoleDate:
		return t.Date
	case RoleCost:
		return t.Cost
	case RoleStatus:
		return t.Status
	case RoleOrigin:
		return t.Origin
	case RoleDestination:
		return t.Destination
	}
	return nil
}

// Resolve returns the first column whose lowercase name contains a keyword,
// trying keywords in priority order and columns in schema order. Empty
// keywords never match.
func Resolve(columns, keywords []string) (string, bool) {
	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(c)
	}
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		for i, c := range lowered {
			if strings.Contains(c, kw) {
				return columns[i], true
			}
		}
	}
	return "", false
}

// ResolveFirst returns the first column, in schema order, whose lowercase
// name contains any of keywords. Empty keywords never match.
func ResolveFirst(columns, keywords []string) (string, bool) {
	for _, c := range columns {
		lower := strings.ToLower(c)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return c, true
			}
		}
	}
	return "", false
}

// Resolver resolves roles against one keyword table.
type Resolver struct {
	Keywords KeywordTable
}

// NewResolver creates a Resolver over keywords.
func NewResolver(keywords KeywordTable) Resolver {
	return Resolver{Keywords: keywords}
}

// Resolve maps role to a column of columns. The identifier is the leftmost
// identifier-like column; every other role follows keyword priority.
func (r Resolver) Resolve(columns []string, role Role) (string, bool) {
	if role == RoleIdentifier {
		return ResolveFirst(columns, r.Keywords.Identifier)
	}
	return Resolve(columns, r.Keywords.For(role))
}

// ResolveWithOverride returns override verbatim when it is non-empty, even
// if no column of that name exists, and falls back to heuristic resolution
// otherwise.
func (r Resolver) ResolveWithOverride(columns []string, role Role, override string) (string, bool) {
	if override != "" {
		return override, true
	}
	return r.Resolve(columns, role)
}

// Phrase resolves a free-text phrase such as "cost" or "ship date" directly
// against the schema, treating the whole phrase as a single keyword.
func Phrase(columns []string, phrase string) (string, bool) {
	return Resolve(columns, []string{strings.TrimSpace(phrase)})
}
