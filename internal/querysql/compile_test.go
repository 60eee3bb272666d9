package querysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/testutil"
)

func TestCompile_FindGolden(t *testing.T) {
	compiler := NewSQLCompiler("shipments")

	testCases := []struct {
		name       string
		filter     queryir.Filter
		limit      int
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "empty filter",
			filter:     queryir.Filter{},
			limit:      100,
			wantSQL:    "SELECT id, body FROM documents WHERE collection = ? AND 1 = 1 ORDER BY id ASC LIMIT ?",
			wantParams: []any{"shipments", 100},
		},
		{
			name:    "status in",
			filter:  queryir.Filter{"Status": queryir.In{Values: []string{"Delivered", "pending"}}},
			limit:   10,
			wantSQL: "SELECT id, body FROM documents WHERE collection = ? AND (lower(CAST(json_extract(body, ?) AS TEXT)) IN (?, ?)) ORDER BY id ASC LIMIT ?",
			wantParams: []any{
				"shipments", `$."Status"`, "delivered", "pending", 10,
			},
		},
		{
			name: "time range half open",
			filter: queryir.Filter{"Ship Date": queryir.TimeRange{
				Field: "Ship Date",
				Start: testutil.Date(2024, 3, 1),
				End:   testutil.Date(2024, 4, 1),
			}},
			wantSQL: "SELECT id, body FROM documents WHERE collection = ? AND (" +
				"(CASE WHEN json_type(body, ?) = 'text' THEN json_extract(body, ?) END) >= ? AND " +
				"(CASE WHEN json_type(body, ?) = 'text' THEN json_extract(body, ?) END) < ?) ORDER BY id ASC",
			wantParams: []any{
				"shipments",
				`$."Ship Date"`, `$."Ship Date"`, "2024-02-29T18:30:00.000Z",
				`$."Ship Date"`, `$."Ship Date"`, "2024-03-31T18:30:00.000Z",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmt, err := compiler.CompileFind(tc.filter, tc.limit)
			require.NoError(t, err)

			assert.Equal(t, tc.wantSQL, stmt.SQL, "SQL mismatch")
			assert.Equal(t, tc.wantParams, stmt.Params, "Parameters mismatch")
			assert.Equal(t, ShapeDocuments, stmt.Shape)
		})
	}
}

func TestCompile_OrderByMandatory(t *testing.T) {
	compiler := NewSQLCompiler("shipments")
	filter := queryir.Filter{"Status": queryir.In{Values: []string{"delivered"}}}

	find, err := compiler.CompileFind(filter, 5)
	require.NoError(t, err)
	assert.Contains(t, find.SQL, "ORDER BY id ASC")

	for _, agg := range []queryir.Aggregation{
		queryir.StatusBreakdown(filter, "Status"),
		queryir.DuplicateGroups(filter, "Ref #"),
		{Stages: []queryir.Stage{queryir.Match{Filter: filter}}},
	} {
		stmt, err := compiler.CompileAggregation(agg)
		require.NoError(t, err)
		assert.Contains(t, stmt.SQL, "ORDER BY")
		assert.True(t,
			strings.HasSuffix(stmt.SQL, "id ASC") || strings.Contains(stmt.SQL, `"_id" ASC`),
			"missing tiebreaker: %s", stmt.SQL)
	}
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	compiler := NewSQLCompiler("x'; DROP TABLE documents; --")
	filter := queryir.Filter{
		"Origin": queryir.Regex{Pattern: "O'Hare", CaseInsensitive: true},
		"Status": queryir.In{Values: []string{"'; DELETE FROM documents; --"}},
		"Note":   queryir.Equals{Value: "Robert'); DROP TABLE"},
	}

	stmt, err := compiler.CompileFind(filter, 1)
	require.NoError(t, err)
	assert.NotContains(t, stmt.SQL, "O'Hare")
	assert.NotContains(t, stmt.SQL, "DELETE")
	assert.NotContains(t, stmt.SQL, "DROP")
	assert.NotContains(t, stmt.SQL, "Origin")
	assert.Contains(t, stmt.Params, "(?i)O'Hare")
}

func TestCompile_FilterFieldOrderIsSorted(t *testing.T) {
	compiler := NewSQLCompiler("c")
	filter := queryir.Filter{
		"b": queryir.Equals{Value: "2"},
		"a": queryir.Equals{Value: "1"},
		"c": queryir.Equals{Value: "3"},
	}

	first, params, err := compiler.CompileFilter(filter)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, _, err := compiler.CompileFilter(filter)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []any{
		`$."a"`, `$."a"`, "1",
		`$."b"`, `$."b"`, "2",
		`$."c"`, `$."c"`, "3",
	}, params)
}

func TestCompile_Predicates(t *testing.T) {
	compiler := NewSQLCompiler("c")

	testCases := []struct {
		name       string
		pred       queryir.Predicate
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "equals null",
			pred:       queryir.Equals{Value: nil},
			wantSQL:    "(json_extract(body, ?) IS NULL)",
			wantParams: []any{`$."f"`},
		},
		{
			name:       "equals number",
			pred:       queryir.Equals{Value: 42},
			wantSQL:    "((CASE WHEN json_type(body, ?) IN ('integer', 'real') THEN json_extract(body, ?) END) = ?)",
			wantParams: []any{`$."f"`, `$."f"`, int64(42)},
		},
		{
			name:       "equals bool",
			pred:       queryir.Equals{Value: true},
			wantSQL:    "(json_extract(body, ?) = ?)",
			wantParams: []any{`$."f"`, 1},
		},
		{
			name:       "empty in",
			pred:       queryir.In{},
			wantSQL:    "(0 = 1)",
			wantParams: nil,
		},
		{
			name:       "case sensitive regex",
			pred:       queryir.Regex{Pattern: `^A\.B`},
			wantSQL:    "(json_extract(body, ?) REGEXP ?)",
			wantParams: []any{`$."f"`, `^A\.B`},
		},
		{
			name: "compare range",
			pred: queryir.Compare{Ops: map[queryir.CmpOp]float64{queryir.OpLt: 500, queryir.OpGt: 100}},
			wantSQL: "((CASE WHEN json_type(body, ?) IN ('integer', 'real') THEN json_extract(body, ?) END) > ? AND " +
				"(CASE WHEN json_type(body, ?) IN ('integer', 'real') THEN json_extract(body, ?) END) < ?)",
			wantParams: []any{`$."f"`, `$."f"`, 100.0, `$."f"`, `$."f"`, 500.0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.CompileFilter(queryir.Filter{"f": tc.pred})
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantParams, params)
		})
	}
}

func TestCompile_ClosedTimeRange(t *testing.T) {
	compiler := NewSQLCompiler("c")
	sql, _, err := compiler.CompileFilter(queryir.Filter{"d": queryir.TimeRange{
		Field:  "d",
		Start:  testutil.Date(2024, 1, 1),
		End:    testutil.Date(2024, 1, 31),
		Closed: true,
	}})
	require.NoError(t, err)
	assert.Contains(t, sql, "<= ?")
	assert.NotContains(t, sql, "< ?)")
}

func TestCompile_FieldErrors(t *testing.T) {
	compiler := NewSQLCompiler("c")

	_, _, err := compiler.CompileFilter(queryir.Filter{`say "hi"`: queryir.Equals{Value: "x"}})
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, `say "hi"`, fieldErr.Field)

	_, _, err = compiler.CompileDistinctCount(queryir.Filter{}, "")
	require.ErrorAs(t, err, &fieldErr)

	_, _, err = compiler.CompileFilter(queryir.Filter{"f": queryir.Regex{Pattern: "("}})
	require.Error(t, err)
}

func TestCompile_Count(t *testing.T) {
	compiler := NewSQLCompiler("shipments")

	sql, params, err := compiler.CompileCount(queryir.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM documents WHERE collection = ? AND 1 = 1", sql)
	assert.Equal(t, []any{"shipments"}, params)

	sql, params, err = compiler.CompileDistinctCount(queryir.Filter{}, "Ref #")
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(DISTINCT CAST(json_extract(body, ?) AS TEXT)) FROM documents WHERE collection = ?"+
			" AND json_extract(body, ?) IS NOT NULL"+
			" AND trim(CAST(json_extract(body, ?) AS TEXT)) != ''"+
			" AND 1 = 1",
		sql)
	assert.Equal(t, []any{`$."Ref #"`, "shipments", `$."Ref #"`, `$."Ref #"`}, params)
}

func TestCompileAggregation_Top(t *testing.T) {
	compiler := NewSQLCompiler("shipments")
	cost := queryir.ToDoubleOrZero("Published Cost")

	stmt, err := compiler.CompileAggregation(queryir.Aggregation{
		Kind: queryir.KindTop,
		Stages: []queryir.Stage{
			queryir.AddComputedField{Name: queryir.ComputedCostField, Expr: cost},
			queryir.Sort{Field: queryir.ComputedCostField, Direction: queryir.Desc},
			queryir.Limit{N: 5},
			queryir.ExcludeProjection{Fields: []string{queryir.ComputedCostField}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT id, body, nlq_to_double(json_extract(body, ?), ?, ?) AS "__cost_num" FROM documents`+
			` WHERE collection = ? ORDER BY "__cost_num" DESC, id ASC LIMIT ?`,
		stmt.SQL)
	assert.Equal(t, []any{`$."Published Cost"`, 0.0, 0.0, "shipments", 5}, stmt.Params)
	assert.Equal(t, ShapeDocuments, stmt.Shape)
	assert.Equal(t, []string{queryir.ComputedCostField}, stmt.Computed)
	assert.Equal(t, []string{queryir.ComputedCostField}, stmt.Exclude)
}

func TestCompileAggregation_SortOnDocumentField(t *testing.T) {
	compiler := NewSQLCompiler("c")
	stmt, err := compiler.CompileAggregation(queryir.Aggregation{Stages: []queryir.Stage{
		queryir.Sort{Field: "Ship Date", Direction: queryir.Asc},
	}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, body FROM documents WHERE collection = ? ORDER BY json_extract(body, ?) ASC, id ASC", stmt.SQL)
	assert.Equal(t, []any{"c", `$."Ship Date"`}, stmt.Params)
}

func TestCompileAggregation_Sum(t *testing.T) {
	compiler := NewSQLCompiler("shipments")
	cost := queryir.ToDoubleOrZero("Published Cost")

	stmt, err := compiler.CompileAggregation(queryir.Aggregation{
		Kind: queryir.KindSum,
		Stages: []queryir.Stage{
			queryir.Match{Filter: queryir.Filter{}},
			queryir.Group{Accumulators: []queryir.Accumulator{
				{Name: queryir.TotalAcc, Op: queryir.AccSum, Input: &cost},
			}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "_id", "total" FROM (SELECT NULL AS "_id", SUM(nlq_to_double(json_extract(body, ?), ?, ?)) AS "total"`+
			` FROM documents WHERE collection = ? AND 1 = 1 HAVING COUNT(*) > 0)`+
			` WHERE 1 = 1 ORDER BY "_id" ASC`,
		stmt.SQL)
	assert.Equal(t, []any{`$."Published Cost"`, 0.0, 0.0, "shipments"}, stmt.Params)
	assert.Equal(t, ShapeGroups, stmt.Shape)
	assert.Equal(t, []string{"_id", "total"}, stmt.GroupColumns)
}

func TestCompileAggregation_DuplicateGroups(t *testing.T) {
	compiler := NewSQLCompiler("shipments")

	stmt, err := compiler.CompileAggregation(queryir.DuplicateGroups(queryir.Filter{}, "Ref #"))
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "_id", "count" FROM (SELECT json_extract(body, ?) AS "_id", COUNT(*) AS "count"`+
			` FROM documents WHERE collection = ? AND 1 = 1 GROUP BY 1)`+
			` WHERE 1 = 1 AND ("count" > ?) ORDER BY "count" DESC, "_id" ASC LIMIT ?`,
		stmt.SQL)
	assert.Equal(t, []any{`$."Ref #"`, "shipments", 1.0, queryir.DuplicateReportLimit}, stmt.Params)
}

func TestCompileAggregation_InvalidPlans(t *testing.T) {
	compiler := NewSQLCompiler("c")
	cost := queryir.ToDoubleOrZero("Cost")

	testCases := []struct {
		name   string
		stages []queryir.Stage
	}{
		{"empty", nil},
		{"match after sort", []queryir.Stage{
			queryir.Sort{Field: "a", Direction: queryir.Asc},
			queryir.Match{Filter: queryir.Filter{}},
		}},
		{"two sorts", []queryir.Stage{
			queryir.Sort{Field: "a", Direction: queryir.Asc},
			queryir.Sort{Field: "b", Direction: queryir.Asc},
		}},
		{"sort after limit", []queryir.Stage{
			queryir.Limit{N: 3},
			queryir.Sort{Field: "a", Direction: queryir.Asc},
		}},
		{"computed before group", []queryir.Stage{
			queryir.AddComputedField{Name: "n", Expr: cost},
			queryir.Group{Accumulators: []queryir.Accumulator{{Name: "count", Op: queryir.AccCount}}},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compiler.CompileAggregation(queryir.Aggregation{Stages: tc.stages})
			var planErr *PlanError
			require.ErrorAs(t, err, &planErr)
			assert.NotEmpty(t, planErr.Problems)
		})
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "2024-03-15T04:30:00.000Z", FormatTime(testutil.FixedNow))
}
