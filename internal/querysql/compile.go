package querysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/nlq/internal/queryir"
)

// Table is the document table every statement reads.
const Table = "documents"

// TimeLayout is how timestamps are stored in document bodies: UTC and fixed
// width, so string order is chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t the way document bodies store timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Shape says what a statement's rows contain.
type Shape int

const (
	// ShapeDocuments rows are (id, body, computed...).
	ShapeDocuments Shape = iota

	// ShapeGroups rows are (_id, accumulators...).
	ShapeGroups
)

// Statement is a compiled, parameterized query plus what the caller needs
// to decode its rows.
type Statement struct {
	SQL    string
	Params []any
	Shape  Shape

	// Computed lists the computed-field aliases selected after id and body.
	Computed []string

	// GroupColumns lists the output columns of a group statement.
	GroupColumns []string

	// Exclude lists fields to drop from every output row.
	Exclude []string
}

// FieldError reports a column name that cannot be addressed safely.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// PlanError reports an aggregation plan the compiler cannot execute.
type PlanError struct {
	Problems []string
}

func (e *PlanError) Error() string {
	return "invalid plan: " + strings.Join(e.Problems, "; ")
}

// SQLCompiler compiles query descriptions to parameterized SQL for SQLite.
//
// CRITICAL: ALL statements include ORDER BY with a deterministic tiebreaker.
// CRITICAL: All values and field paths are parameterized (never interpolated).
type SQLCompiler struct {
	// Collection scopes every statement to one ingested dataset.
	Collection string
}

// NewSQLCompiler creates a compiler scoped to collection.
func NewSQLCompiler(collection string) *SQLCompiler {
	return &SQLCompiler{Collection: collection}
}

// builder accumulates SQL text and its parameters in textual order.
type builder struct {
	sb     strings.Builder
	params []any
}

func (b *builder) write(s string, params ...any) {
	b.sb.WriteString(s)
	b.params = append(b.params, params...)
}

// JSONPath returns the SQLite JSON path addressing a top-level key.
// Column names come from spreadsheet headers, so they are quoted as a
// single path label; a double quote cannot be expressed inside one.
func JSONPath(field string) (string, error) {
	if field == "" {
		return "", &FieldError{Field: field, Reason: "empty field name"}
	}
	if strings.ContainsRune(field, '"') {
		return "", &FieldError{Field: field, Reason: "double quotes are not supported in field names"}
	}
	return `$."` + field + `"`, nil
}

// quoteIdent quotes an output column alias.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// valueKind selects how a field is read for a predicate.
type valueKind int

const (
	kindAny valueKind = iota
	kindNumber
	kindText
)

// source resolves field names to SQL expressions.
type source interface {
	expr(b *builder, field string, kind valueKind) error
}

// documentSource reads fields out of the JSON body. Typed reads yield NULL
// for values of another JSON type, so comparisons on them are false.
type documentSource struct{}

func (documentSource) expr(b *builder, field string, kind valueKind) error {
	path, err := JSONPath(field)
	if err != nil {
		return err
	}
	switch kind {
	case kindNumber:
		b.write("(CASE WHEN json_type(body, ?) IN ('integer', 'real') THEN json_extract(body, ?) END)", path, path)
	case kindText:
		b.write("(CASE WHEN json_type(body, ?) = 'text' THEN json_extract(body, ?) END)", path, path)
	default:
		b.write("json_extract(body, ?)", path)
	}
	return nil
}

// groupSource reads the output columns of a group subquery.
type groupSource struct {
	columns []string
}

func (g groupSource) expr(b *builder, field string, _ valueKind) error {
	for _, c := range g.columns {
		if c == field {
			b.write(quoteIdent(field))
			return nil
		}
	}
	return &FieldError{Field: field, Reason: "not produced by the group stage"}
}

// CompileFilter compiles a filter to a WHERE fragment over document bodies.
// The empty filter compiles to an always-true condition.
func (c *SQLCompiler) CompileFilter(filter queryir.Filter) (string, []any, error) {
	b := &builder{}
	if err := c.writeFilter(b, documentSource{}, filter); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.params, nil
}

func (c *SQLCompiler) writeFilter(b *builder, src source, filter queryir.Filter) error {
	if len(filter) == 0 {
		b.write("1 = 1")
		return nil
	}
	// Sorted field order keeps the SQL text stable across runs
	for i, field := range filter.Fields() {
		if i > 0 {
			b.write(" AND ")
		}
		b.write("(")
		if err := c.writePredicate(b, src, field, filter[field]); err != nil {
			return fmt.Errorf("compile predicate on %q: %w", field, err)
		}
		b.write(")")
	}
	return nil
}

var cmpSQL = map[queryir.CmpOp]string{
	queryir.OpEq:  "=",
	queryir.OpGt:  ">",
	queryir.OpLt:  "<",
	queryir.OpGte: ">=",
	queryir.OpLte: "<=",
}

func (c *SQLCompiler) writePredicate(b *builder, src source, field string, p queryir.Predicate) error {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.writeEquals(b, src, field, pred)
	case queryir.In:
		if len(pred.Values) == 0 {
			b.write("0 = 1")
			return nil
		}
		b.write("lower(CAST(")
		if err := src.expr(b, field, kindAny); err != nil {
			return err
		}
		b.write(" AS TEXT)) IN (")
		for i, v := range pred.Values {
			if i > 0 {
				b.write(", ")
			}
			b.write("?", strings.ToLower(v))
		}
		b.write(")")
		return nil
	case queryir.Regex:
		pattern := pred.Pattern
		if pred.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		if _, err := cachedRegexp(pattern); err != nil {
			return err
		}
		if err := src.expr(b, field, kindAny); err != nil {
			return err
		}
		b.write(" REGEXP ?", pattern)
		return nil
	case queryir.Compare:
		if len(pred.Ops) == 0 {
			return fmt.Errorf("comparison without operators")
		}
		for i, op := range pred.SortedOps() {
			if i > 0 {
				b.write(" AND ")
			}
			if err := src.expr(b, field, kindNumber); err != nil {
				return err
			}
			b.write(" "+cmpSQL[op]+" ?", pred.Ops[op])
		}
		return nil
	case queryir.TimeRange:
		if err := src.expr(b, field, kindText); err != nil {
			return err
		}
		b.write(" >= ? AND ", FormatTime(pred.Start))
		if err := src.expr(b, field, kindText); err != nil {
			return err
		}
		if pred.Closed {
			b.write(" <= ?", FormatTime(pred.End))
		} else {
			b.write(" < ?", FormatTime(pred.End))
		}
		return nil
	case nil:
		return fmt.Errorf("nil predicate")
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) writeEquals(b *builder, src source, field string, eq queryir.Equals) error {
	var (
		kind  = kindAny
		param any
	)
	switch v := eq.Value.(type) {
	case nil:
		if err := src.expr(b, field, kindAny); err != nil {
			return err
		}
		b.write(" IS NULL")
		return nil
	case string:
		kind, param = kindText, v
	case float64:
		kind, param = kindNumber, v
	case int:
		kind, param = kindNumber, int64(v)
	case int64:
		kind, param = kindNumber, v
	case bool:
		// JSON booleans read back as 1 and 0
		param = 0
		if v {
			param = 1
		}
	case time.Time:
		kind, param = kindText, FormatTime(v)
	default:
		return fmt.Errorf("unsupported equality value type: %T", eq.Value)
	}
	if err := src.expr(b, field, kind); err != nil {
		return err
	}
	b.write(" = ?", param)
	return nil
}

// writeScope writes the collection condition every statement starts with.
func (c *SQLCompiler) writeScope(b *builder) {
	b.write("collection = ?", c.Collection)
}

// CompileFind compiles a plain listing capped at limit, in ingestion order.
// MANDATORY: Includes ORDER BY with id tiebreaker.
func (c *SQLCompiler) CompileFind(filter queryir.Filter, limit int) (Statement, error) {
	b := &builder{}
	b.write("SELECT id, body FROM " + Table + " WHERE ")
	c.writeScope(b)
	b.write(" AND ")
	if err := c.writeFilter(b, documentSource{}, filter); err != nil {
		return Statement{}, err
	}
	b.write(" ORDER BY id ASC")
	if limit > 0 {
		b.write(" LIMIT ?", limit)
	}
	return Statement{SQL: b.sb.String(), Params: b.params, Shape: ShapeDocuments}, nil
}

// CompileCount compiles a count of matching documents.
func (c *SQLCompiler) CompileCount(filter queryir.Filter) (string, []any, error) {
	b := &builder{}
	b.write("SELECT COUNT(*) FROM " + Table + " WHERE ")
	c.writeScope(b)
	b.write(" AND ")
	if err := c.writeFilter(b, documentSource{}, filter); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.params, nil
}

// CompileDistinctCount compiles a count of distinct non-blank values of
// field among matching documents.
func (c *SQLCompiler) CompileDistinctCount(filter queryir.Filter, field string) (string, []any, error) {
	path, err := JSONPath(field)
	if err != nil {
		return "", nil, err
	}
	b := &builder{}
	b.write("SELECT COUNT(DISTINCT CAST(json_extract(body, ?) AS TEXT)) FROM "+Table+" WHERE ", path)
	c.writeScope(b)
	b.write(" AND json_extract(body, ?) IS NOT NULL", path)
	b.write(" AND trim(CAST(json_extract(body, ?) AS TEXT)) != ''", path)
	b.write(" AND ")
	if err := c.writeFilter(b, documentSource{}, filter); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.params, nil
}
