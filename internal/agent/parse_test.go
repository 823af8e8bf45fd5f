package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTradeJSON_FullRecord(t *testing.T) {
	t.Parallel()

	trade, conf, err := parseTradeJSON(`{"product_name":"wheat","quantity":10,"unit":"quintal","unit_price":25.5,"confidence":0.92}`)
	require.NoError(t, err)
	assert.Equal(t, "wheat", trade.ProductName)
	assert.Equal(t, 10.0, trade.Quantity)
	assert.Equal(t, "quintal", trade.Unit)
	assert.Equal(t, 25.5, trade.UnitPrice)
	assert.InDelta(t, 0.92, conf, 0.0001)
}

func TestParseTradeJSON_NullAndMissingFieldsStayEmpty(t *testing.T) {
	t.Parallel()

	trade, conf, err := parseTradeJSON(`{"product_name":"onion","quantity":null,"confidence":0.4}`)
	require.NoError(t, err)
	assert.Equal(t, "onion", trade.ProductName)
	assert.Zero(t, trade.Quantity)
	assert.Empty(t, trade.Unit)
	assert.Zero(t, trade.UnitPrice)
	assert.InDelta(t, 0.4, conf, 0.0001)
	assert.False(t, trade.Complete())
}

func TestParseTradeJSON_StripsMarkdownFences(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"product_name\":\"wheat\",\"quantity\":10,\"unit\":\"quintal\",\"unit_price\":25.5,\"confidence\":0.9}\n```"
	trade, _, err := parseTradeJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "wheat", trade.ProductName)
}

func TestParseTradeJSON_ExtractsObjectFromProse(t *testing.T) {
	t.Parallel()

	raw := `Here is the extraction: {"product_name":"onion","quantity":5,"unit":"kg","unit_price":30,"confidence":0.8} as requested.`
	trade, _, err := parseTradeJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "onion", trade.ProductName)
	assert.Equal(t, 5.0, trade.Quantity)
}

func TestParseTradeJSON_QuotedNumbersAccepted(t *testing.T) {
	t.Parallel()

	trade, _, err := parseTradeJSON(`{"product_name":"wheat","quantity":"10","unit":"quintal","unit_price":"25.50","confidence":0.7}`)
	require.NoError(t, err)
	assert.Equal(t, 10.0, trade.Quantity)
	assert.Equal(t, 25.5, trade.UnitPrice)
}

func TestParseTradeJSON_WrongTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"numeric product name", `{"product_name":42,"confidence":0.5}`, "product_name"},
		{"object quantity", `{"quantity":{"value":10},"confidence":0.5}`, "quantity"},
		{"unparseable quoted price", `{"unit_price":"twenty five","confidence":0.5}`, "unit_price"},
		{"boolean unit", `{"unit":true,"confidence":0.5}`, "unit"},
		{"string confidence garbage", `{"confidence":"high"}`, "confidence"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := parseTradeJSON(tt.raw)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParseTradeJSON_InvalidJSON(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not json at all", "{broken", "[1,2,3]"} {
		_, _, err := parseTradeJSON(raw)
		require.Error(t, err, raw)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe, raw)
	}
}

func TestParseTradeJSON_ConfidenceClamped(t *testing.T) {
	t.Parallel()

	_, conf, err := parseTradeJSON(`{"confidence":3.5}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, conf)

	_, conf, err = parseTradeJSON(`{"confidence":-1}`)
	require.NoError(t, err)
	assert.Zero(t, conf)

	// Missing confidence defaults to zero.
	_, conf, err = parseTradeJSON(`{"product_name":"wheat"}`)
	require.NoError(t, err)
	assert.Zero(t, conf)
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`prefix {"a":1} suffix`))
	assert.Equal(t, "no braces here", cleanJSON("  no braces here  "))
}
