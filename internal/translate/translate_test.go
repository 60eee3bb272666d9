package translate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nlq/internal/config"
	"github.com/roach88/nlq/internal/ir"
	"github.com/roach88/nlq/internal/queryir"
	"github.com/roach88/nlq/internal/testutil"
)

func newTranslator() *Translator {
	return New(config.Default(),
		WithClock(testutil.NewFixedClock()),
		WithLocation(testutil.IST),
	)
}

func translate(text string, columns []string) queryir.QueryDescription {
	return newTranslator().Translate(Request{Text: text, Columns: columns})
}

func TestTranslateSumCurrentMonth(t *testing.T) {
	desc := translate("Show total shipment cost for the current month", testutil.ShipmentColumns())

	assert.Equal(t, queryir.IntentSum, desc.Intent)
	assert.False(t, desc.IsCount)

	month := queryir.TimeRange{
		Field: "Ship Date",
		Start: testutil.Date(2024, 3, 1),
		End:   testutil.Date(2024, 4, 1),
	}
	require.Equal(t, queryir.Filter{"Ship Date": month}, desc.Filter)

	cost := queryir.ToDoubleOrZero("Published Cost")
	require.NotNil(t, desc.Aggregation)
	assert.Equal(t, queryir.KindSum, desc.Aggregation.Kind)
	assert.Equal(t, []queryir.Stage{
		queryir.Match{Filter: desc.Filter},
		queryir.Group{Accumulators: []queryir.Accumulator{{Name: "total", Op: queryir.AccSum, Input: &cost}}},
	}, desc.Aggregation.Stages)
}

func TestTranslatePlanDoesNotShareFilter(t *testing.T) {
	desc := translate("total cost of delivered shipments this month", testutil.ShipmentColumns())
	require.NotNil(t, desc.Aggregation)
	before, err := ir.MarshalCanonical(desc.Aggregation)
	require.NoError(t, err)

	desc.Filter.Set("Status", queryir.In{Values: []string{"pending"}})
	delete(desc.Filter, "Ship Date")

	after, err := ir.MarshalCanonical(desc.Aggregation)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestTranslateCountDistinctOnLeftmostIdentifier(t *testing.T) {
	desc := translate("how many shipments", []string{"AWB No", "Ref #", "Ship Date"})

	assert.True(t, desc.IsCount)
	assert.Equal(t, "AWB No", desc.DistinctField)
}

func TestTranslateTopN(t *testing.T) {
	desc := translate("List the top 5 most expensive shipments", testutil.ShipmentColumns())

	assert.Equal(t, queryir.IntentTopN, desc.Intent)
	assert.Empty(t, desc.Filter)
	require.NotNil(t, desc.Aggregation)
	assert.Equal(t, queryir.KindTop, desc.Aggregation.Kind)
	assert.Equal(t, []queryir.Stage{
		queryir.AddComputedField{Name: "__cost_num", Expr: queryir.ToDoubleOrZero("Published Cost")},
		queryir.Sort{Field: "__cost_num", Direction: queryir.Desc},
		queryir.Limit{N: 5},
		queryir.ExcludeProjection{Fields: []string{"__cost_num"}},
	}, desc.Aggregation.Stages)
	assert.True(t, queryir.Validate(*desc.Aggregation).Valid)
}

func TestTranslateTopNWithFilterMatchesFirst(t *testing.T) {
	desc := translate("top 3 delivered shipments", testutil.ShipmentColumns())

	require.NotNil(t, desc.Aggregation)
	require.Len(t, desc.Aggregation.Stages, 5)
	assert.Equal(t, queryir.Match{Filter: queryir.Filter{
		"Status": queryir.In{Values: []string{"delivered"}},
	}}, desc.Aggregation.Stages[0])
}

func TestTranslateGroupByStatus(t *testing.T) {
	desc := translate("cost analysis this year grouped by status", testutil.ShipmentColumns())

	assert.Equal(t, queryir.IntentGroupBy, desc.Intent)
	require.NotNil(t, desc.Aggregation)
	assert.Equal(t, queryir.KindGroupCost, desc.Aggregation.Kind)
	require.Len(t, desc.Aggregation.Stages, 3)

	group, ok := desc.Aggregation.Stages[1].(queryir.Group)
	require.True(t, ok)
	assert.Equal(t, "Status", group.Key)
	assert.Equal(t, []string{"count", "total_cost", "avg_cost"}, group.AccumulatorNames())
	assert.Equal(t, queryir.Sort{Field: "total_cost", Direction: queryir.Desc}, desc.Aggregation.Stages[2])
	assert.True(t, queryir.Validate(*desc.Aggregation).Valid)
}

func TestTranslateGroupByPhrase(t *testing.T) {
	desc := translate("cost grouped by origin", testutil.WideShipmentColumns())

	require.NotNil(t, desc.Aggregation)
	group := desc.Aggregation.Stages[1].(queryir.Group)
	assert.Equal(t, "Origin City", group.Key)
}

func TestTranslateCount(t *testing.T) {
	desc := translate("How many shipments were delivered, and what total?", testutil.ShipmentColumns())

	assert.Equal(t, queryir.IntentCount, desc.Intent, "count outranks sum")
	assert.True(t, desc.IsCount)
	assert.Nil(t, desc.Aggregation)
	assert.Equal(t, "Ref #", desc.DistinctField)
	assert.Equal(t, queryir.In{Values: []string{"delivered"}}, desc.Filter["Status"])
}

func TestTranslateCountWithoutIdentifier(t *testing.T) {
	desc := translate("count pending", []string{"Status"})
	assert.True(t, desc.IsCount)
	assert.Empty(t, desc.DistinctField)
}

func TestTranslateDowngrades(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		columns []string
	}{
		{"sum without cost", "total cost", []string{"Ref #", "Status"}},
		{"top without cost", "top 5", []string{"Ref #", "Status"}},
		{"group without group field", "cost grouped by warehouse", testutil.ShipmentColumns()},
		{"group without cost", "grouped by status", []string{"Ref #", "Status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := translate(tt.text, tt.columns)
			assert.Equal(t, queryir.IntentDefault, desc.Intent)
			assert.Nil(t, desc.Aggregation)
			assert.False(t, desc.IsCount)
			assert.Equal(t, 100, desc.Limit)
		})
	}
}

func TestTranslateEmptyInputs(t *testing.T) {
	for _, req := range []Request{{}, {Text: "   "}, {Text: "gibberish"}, {Columns: testutil.ShipmentColumns()}} {
		desc := newTranslator().Translate(req)
		assert.Equal(t, queryir.QueryDescription{
			Filter: queryir.Filter{},
			Limit:  100,
			Intent: queryir.IntentDefault,
		}, desc)
	}
}

func TestTranslateOverrides(t *testing.T) {
	desc := newTranslator().Translate(Request{
		Text:         "total for this month",
		Columns:      testutil.ShipmentColumns(),
		DateOverride: "Booked",
		CostOverride: "Ref #",
	})

	assert.Contains(t, desc.Filter, "Booked")
	assert.NotContains(t, desc.Filter, "Ship Date")
	require.NotNil(t, desc.Aggregation)
	group := desc.Aggregation.Stages[1].(queryir.Group)
	assert.Equal(t, "Ref #", group.Accumulators[0].Input.Field)
}

func TestTranslateCostOverrideSatisfiesIntent(t *testing.T) {
	desc := newTranslator().Translate(Request{Text: "top 2", Columns: []string{"Ref #"}, CostOverride: "Weight"})
	assert.Equal(t, queryir.IntentTopN, desc.Intent)
}

func TestTranslateMergesComparisons(t *testing.T) {
	desc := translate("cost > 100 cost < 500", []string{"Cost (USD)"})

	b, err := ir.MarshalCanonical(desc.Filter)
	require.NoError(t, err)
	assert.Equal(t, `{"Cost (USD)":{"gt":100,"lt":500}}`, string(b))
}

func TestTranslateTimeRangeWinsOnDateField(t *testing.T) {
	// "ship date > 5" targets the date column directly; the temporal
	// range replaces it.
	desc := translate("ship date > 5 this month", testutil.ShipmentColumns())
	assert.IsType(t, queryir.TimeRange{}, desc.Filter["Ship Date"])
}

func TestTranslateLastSevenDays(t *testing.T) {
	desc := translate("delivered in the last 7 days", testutil.ShipmentColumns())

	tr, ok := desc.Filter["Ship Date"].(queryir.TimeRange)
	require.True(t, ok)
	assert.True(t, testutil.Date(2024, 3, 8).Equal(tr.Start))
	assert.True(t, testutil.FixedNow.Equal(tr.End))
	assert.False(t, tr.Closed)
}

func TestTranslateNormalizesText(t *testing.T) {
	decomposed := translate("from Cafe\u0301 Street", []string{"Origin"})
	composed := translate("from Caf\u00e9 Street", []string{"Origin"})
	assert.Equal(t, composed, decomposed)
}

func TestTranslateDeterministic(t *testing.T) {
	req := Request{Text: "total cost of delivered shipments from Pune this week", Columns: testutil.WideShipmentColumns()}

	first, err := ir.MarshalCanonical(newTranslator().Translate(req))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := ir.MarshalCanonical(newTranslator().Translate(req))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestTranslateConcurrent(t *testing.T) {
	tr := newTranslator()
	req := Request{Text: "top 10 booked this month", Columns: testutil.ShipmentColumns()}
	want := tr.Translate(req)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, tr.Translate(req))
		}()
	}
	wg.Wait()
}

func TestTranslateAtIgnoresClock(t *testing.T) {
	desc := newTranslator().TranslateAt(
		Request{Text: "this year", Columns: testutil.ShipmentColumns()},
		time.Date(2023, 6, 1, 12, 0, 0, 0, testutil.IST),
	)
	tr := desc.Filter["Ship Date"].(queryir.TimeRange)
	assert.True(t, testutil.Date(2023, 1, 1).Equal(tr.Start))
}

func TestNewWithConfiguredLimit(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultLimit = 25
	desc := New(cfg, WithClock(testutil.NewFixedClock())).Translate(Request{})
	assert.Equal(t, 25, desc.Limit)

	cfg.DefaultLimit = 0
	desc = New(cfg, WithClock(testutil.NewFixedClock())).Translate(Request{})
	assert.Equal(t, 100, desc.Limit)
}
