package querysql

import (
	"fmt"
	"slices"

	"github.com/roach88/nlq/internal/queryir"
)

// plan is an aggregation split into the clauses SQLite evaluates.
type plan struct {
	match    []queryir.Filter
	computed []queryir.AddComputedField
	group    *queryir.Group
	post     []queryir.Filter
	sort     *queryir.Sort
	limit    *queryir.Limit
	exclude  []string
}

// CompileAggregation compiles a stage plan to a single statement.
//
// Plans without a group select documents with any computed fields. Plans
// with a group select one row per key from a subquery, and stages after
// the group filter and order those rows.
//
// MANDATORY: Includes ORDER BY with a deterministic tiebreaker (id for
// documents, _id for groups).
func (c *SQLCompiler) CompileAggregation(agg queryir.Aggregation) (Statement, error) {
	if res := queryir.Validate(agg); !res.Valid {
		return Statement{}, &PlanError{Problems: res.Problems}
	}
	p, err := split(agg.Stages)
	if err != nil {
		return Statement{}, err
	}
	if p.group != nil {
		return c.compileGroup(p)
	}
	return c.compileDocuments(p)
}

func split(stages []queryir.Stage) (plan, error) {
	var p plan
	for _, stage := range stages {
		switch s := stage.(type) {
		case queryir.Match:
			if p.group != nil {
				p.post = append(p.post, s.Filter)
			} else {
				p.match = append(p.match, s.Filter)
			}
		case queryir.AddComputedField:
			p.computed = append(p.computed, s)
		case queryir.Group:
			if len(p.computed) > 0 {
				return plan{}, &PlanError{Problems: []string{"computed fields before a group are not supported"}}
			}
			g := s
			p.group = &g
		case queryir.Sort:
			if p.sort != nil {
				return plan{}, &PlanError{Problems: []string{"only one sort stage is supported"}}
			}
			if p.limit != nil {
				return plan{}, &PlanError{Problems: []string{"sort after limit is not supported"}}
			}
			st := s
			p.sort = &st
		case queryir.Limit:
			if p.limit != nil {
				return plan{}, &PlanError{Problems: []string{"only one limit stage is supported"}}
			}
			l := s
			p.limit = &l
		case queryir.ExcludeProjection:
			p.exclude = append(p.exclude, s.Fields...)
		default:
			return plan{}, &PlanError{Problems: []string{fmt.Sprintf("unsupported stage type: %T", stage)}}
		}
	}
	return p, nil
}

var directionSQL = map[queryir.Direction]string{
	queryir.Asc:  "ASC",
	queryir.Desc: "DESC",
}

func (c *SQLCompiler) writeMatches(b *builder, src source, filters []queryir.Filter) error {
	for _, f := range filters {
		b.write(" AND ")
		if err := c.writeFilter(b, src, f); err != nil {
			return err
		}
	}
	return nil
}

func writeToDouble(b *builder, e queryir.ToDouble) error {
	path, err := JSONPath(e.Field)
	if err != nil {
		return err
	}
	b.write(FuncToDouble+"(json_extract(body, ?), ?, ?)", path, e.OnError, e.OnNull)
	return nil
}

func (c *SQLCompiler) compileDocuments(p plan) (Statement, error) {
	b := &builder{}
	b.write("SELECT id, body")
	names := make([]string, 0, len(p.computed))
	for _, cf := range p.computed {
		b.write(", ")
		if err := writeToDouble(b, cf.Expr); err != nil {
			return Statement{}, err
		}
		b.write(" AS " + quoteIdent(cf.Name))
		names = append(names, cf.Name)
	}

	b.write(" FROM " + Table + " WHERE ")
	c.writeScope(b)
	if err := c.writeMatches(b, documentSource{}, p.match); err != nil {
		return Statement{}, err
	}

	b.write(" ORDER BY ")
	if p.sort != nil {
		if slices.Contains(names, p.sort.Field) {
			b.write(quoteIdent(p.sort.Field))
		} else if err := (documentSource{}).expr(b, p.sort.Field, kindAny); err != nil {
			return Statement{}, err
		}
		b.write(" " + directionSQL[p.sort.Direction] + ", ")
	}
	b.write("id ASC")
	if p.limit != nil {
		b.write(" LIMIT ?", p.limit.N)
	}

	return Statement{
		SQL:      b.sb.String(),
		Params:   b.params,
		Shape:    ShapeDocuments,
		Computed: names,
		Exclude:  p.exclude,
	}, nil
}

func (c *SQLCompiler) compileGroup(p plan) (Statement, error) {
	g := p.group
	columns := append([]string{queryir.GroupKeyField}, g.AccumulatorNames()...)

	b := &builder{}
	b.write("SELECT ")
	for i, col := range columns {
		if i > 0 {
			b.write(", ")
		}
		b.write(quoteIdent(col))
	}

	b.write(" FROM (SELECT ")
	if g.Key == "" {
		b.write("NULL")
	} else if err := (documentSource{}).expr(b, g.Key, kindAny); err != nil {
		return Statement{}, err
	}
	b.write(" AS " + quoteIdent(queryir.GroupKeyField))
	for _, acc := range g.Accumulators {
		b.write(", ")
		if err := writeAccumulator(b, acc); err != nil {
			return Statement{}, err
		}
		b.write(" AS " + quoteIdent(acc.Name))
	}
	b.write(" FROM " + Table + " WHERE ")
	c.writeScope(b)
	if err := c.writeMatches(b, documentSource{}, p.match); err != nil {
		return Statement{}, err
	}
	if g.Key == "" {
		// An empty input produces no group rather than one all-null row
		b.write(" HAVING COUNT(*) > 0")
	} else {
		b.write(" GROUP BY 1")
	}
	b.write(")")

	src := groupSource{columns: columns}
	b.write(" WHERE 1 = 1")
	if err := c.writeMatches(b, src, p.post); err != nil {
		return Statement{}, err
	}

	b.write(" ORDER BY ")
	if p.sort != nil {
		if err := src.expr(b, p.sort.Field, kindAny); err != nil {
			return Statement{}, err
		}
		b.write(" " + directionSQL[p.sort.Direction] + ", ")
	}
	b.write(quoteIdent(queryir.GroupKeyField) + " ASC")
	if p.limit != nil {
		b.write(" LIMIT ?", p.limit.N)
	}

	return Statement{
		SQL:          b.sb.String(),
		Params:       b.params,
		Shape:        ShapeGroups,
		GroupColumns: columns,
		Exclude:      p.exclude,
	}, nil
}

func writeAccumulator(b *builder, acc queryir.Accumulator) error {
	switch acc.Op {
	case queryir.AccCount:
		b.write("COUNT(*)")
		return nil
	case queryir.AccSum:
		b.write("SUM(")
	case queryir.AccAvg:
		b.write("AVG(")
	default:
		return fmt.Errorf("unsupported accumulator op: %q", acc.Op)
	}
	if acc.Input == nil {
		return fmt.Errorf("accumulator %q has no input", acc.Name)
	}
	if err := writeToDouble(b, *acc.Input); err != nil {
		return err
	}
	b.write(")")
	return nil
}
