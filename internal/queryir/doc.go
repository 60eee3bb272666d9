// Package queryir defines the query description the translator produces and
// the abstract aggregation stages it is built from.
//
// QueryIR is the abstraction boundary between the natural-language
// translator and the backends that execute queries:
//
//	[text] → [translate] → [QueryDescription] → [querysql] → SQLite
//
// The description is backend neutral. Field names are the raw column names
// of the ingested spreadsheet, not identifiers, so backends must quote or
// path-escape them and never interpolate them into query text.
//
// SEALED INTERFACES:
//
// Predicate and Stage are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, which keeps the type
// switches in backends exhaustive:
//
//	switch p := pred.(type) {
//	case In:
//	    // set membership
//	case Compare:
//	    // numeric comparison
//	case TimeRange:
//	    // half-open or closed time window
//	...
//	}
//
// CANONICAL FORM:
//
// Every node implements ir.Canonicaler. The canonical shapes are the wire
// contract consumers depend on:
//
//	Equals            raw value
//	In                {"in": [values]}
//	Regex             {"regex": pattern, "caseInsensitive": true}
//	Compare           {"gt": n, "lt": n, ...}
//	TimeRange         {"gte": t, "lt": t} or {"gte": t, "lte": t}
//
//	Match             {"match": filter}
//	AddComputedField  {"addComputedField": {"name", "expr"}}
//	Group             {"group": {"key", "accumulators"}}
//	Sort              {"sort": {"field", "direction"}}
//	Limit             {"limit": n}
//	ExcludeProjection {"excludeProjection": [fields]}
//
// STAGE ORDER:
//
// Consumers must honor stage order exactly as given. Validate rejects plans
// a backend could not execute faithfully, such as a match after a sort.
package queryir
