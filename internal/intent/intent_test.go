package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/nlq/internal/queryir"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Classification
	}{
		{"how many", "How many shipments were delivered?", Classification{Intent: queryir.IntentCount}},
		{"count", "count of pending", Classification{Intent: queryir.IntentCount}},
		{"number of", "Number of returns", Classification{Intent: queryir.IntentCount}},
		{"count beats sum", "how many shipments and what total", Classification{Intent: queryir.IntentCount}},
		{"total", "Show total shipment cost for the current month", Classification{Intent: queryir.IntentSum}},
		{"sum", "sum of charges", Classification{Intent: queryir.IntentSum}},
		{"sum beats group", "total cost grouped by status", Classification{Intent: queryir.IntentSum}},
		{"group by phrase", "cost analysis group by Origin City", Classification{Intent: queryir.IntentGroupBy, GroupPhrase: "Origin City"}},
		{"grouped by", "cost grouped by destination", Classification{Intent: queryir.IntentGroupBy, GroupPhrase: "destination"}},
		{"by status literal", "cost split by status", Classification{Intent: queryir.IntentGroupBy, GroupPhrase: "status"}},
		{"group beats top", "top 5 grouped by status", Classification{Intent: queryir.IntentGroupBy, GroupPhrase: "status"}},
		{"top n", "List the top 5 most expensive shipments", Classification{Intent: queryir.IntentTopN, TopN: 5}},
		{"top n upper", "TOP 20", Classification{Intent: queryir.IntentTopN, TopN: 20}},
		{"top zero", "top 0 shipments", Classification{Intent: queryir.IntentDefault}},
		{"top overflow", "top 99999999999999999999", Classification{Intent: queryir.IntentDefault}},
		{"default", "list delivered shipments", Classification{Intent: queryir.IntentDefault}},
		{"empty", "", Classification{Intent: queryir.IntentDefault}},
		{"whole word count", "discount shipments", Classification{Intent: queryir.IntentDefault}},
		{"whole word total", "totally late", Classification{Intent: queryir.IntentDefault}},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text))
		})
	}
}

func TestClassifyCustomRules(t *testing.T) {
	c := &Classifier{Rules: []Rule{{Intent: queryir.IntentTopN, Match: matchTopN}}}

	// Count is not in the rule list, so only TopN can fire
	assert.Equal(t, Classification{Intent: queryir.IntentTopN, TopN: 3}, c.Classify("how many in the top 3"))
}
