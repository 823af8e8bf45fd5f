package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTotalAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		want      string
	}{
		{"whole numbers", "10", "25.50", "255"},
		{"large trade", "2", "2000", "4000"},
		{"fractional quantity", "2.5", "40", "100"},
		{"paisa precision", "3", "33.333", "100"},
		{"rounds half up", "1", "10.005", "10.01"},
		{"small trade", "0.5", "1", "0.5"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := TotalAmount(dec(tt.quantity), dec(tt.unitPrice))
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestTotalAmount_RejectsNonPositiveInputs(t *testing.T) {
	t.Parallel()

	_, err := TotalAmount(dec("0"), dec("25.50"))
	require.Error(t, err)
	assert.EqualError(t, err, "quantity must be positive")

	_, err = TotalAmount(dec("-3"), dec("25.50"))
	require.Error(t, err)
	assert.EqualError(t, err, "quantity must be positive")

	_, err = TotalAmount(dec("10"), dec("0"))
	require.Error(t, err)
	assert.EqualError(t, err, "unit price must be positive")

	_, err = TotalAmount(dec("10"), dec("-1.25"))
	require.Error(t, err)
	assert.EqualError(t, err, "unit price must be positive")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "unit_price", ve.Field)
}

func TestMandiCess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total string
		want  string
	}{
		{"five percent of hundred", "100", "5"},
		{"rounds to paisa", "255", "12.75"},
		{"large total", "4000", "200"},
		{"zero total zero cess", "0", "0"},
		{"rounds half up", "100.10", "5.01"},
		{"tiny total", "0.01", "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := MandiCess(dec(tt.total))
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestMandiCess_RejectsNegativeTotal(t *testing.T) {
	t.Parallel()

	_, err := MandiCess(dec("-0.01"))
	require.Error(t, err)
	assert.EqualError(t, err, "total amount must be non-negative")
}

func TestFinalAmount(t *testing.T) {
	t.Parallel()

	total, cess, final, err := FinalAmount(dec("10"), dec("25.50"))
	require.NoError(t, err)
	assert.True(t, dec("255").Equal(total))
	assert.True(t, dec("12.75").Equal(cess))
	assert.True(t, dec("267.75").Equal(final))

	// Final is always the exact sum of its parts.
	assert.True(t, total.Add(cess).Equal(final))
}

func TestFinalAmount_PropagatesValidation(t *testing.T) {
	t.Parallel()

	_, _, _, err := FinalAmount(dec("0"), dec("25.50"))
	require.Error(t, err)
	assert.EqualError(t, err, "quantity must be positive")
}

func TestValidateConsistency(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidateConsistency(dec("10"), dec("25.50"), dec("255"), dec("12.75")))
	assert.True(t, ValidateConsistency(dec("2"), dec("2000"), dec("4000"), dec("200")))

	// Drifted total.
	assert.False(t, ValidateConsistency(dec("10"), dec("25.50"), dec("265"), dec("12.75")))
	// Drifted cess.
	assert.False(t, ValidateConsistency(dec("10"), dec("25.50"), dec("255"), dec("13.75")))
	// Invalid inputs are never consistent.
	assert.False(t, ValidateConsistency(dec("0"), dec("25.50"), dec("0"), dec("0")))
}

func TestDerive(t *testing.T) {
	t.Parallel()

	total, cess, final, err := Derive(10, 25.50)
	require.NoError(t, err)
	assert.InDelta(t, 255.00, total, 0.0001)
	assert.InDelta(t, 12.75, cess, 0.0001)
	assert.InDelta(t, 267.75, final, 0.0001)

	_, _, _, err = Derive(-1, 10)
	require.Error(t, err)
}

func TestConsistentRecord(t *testing.T) {
	t.Parallel()

	total, cess, _, err := Derive(7.5, 12.40)
	require.NoError(t, err)
	assert.True(t, ConsistentRecord(7.5, 12.40, total, cess))
	assert.False(t, ConsistentRecord(7.5, 12.40, total+10, cess))
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "255.00", FormatAmount(255))
	assert.Equal(t, "12.75", FormatAmount(12.75))
	assert.Equal(t, "0.00", FormatAmount(0))
}
