// Package calc implements the money arithmetic for trade receipts: total
// amount, the 5% mandi cess levy, and consistency checks over stored records.
// All arithmetic is done in decimal to keep currency output stable; results
// are quantized to two decimal places with half-up rounding.
package calc

import (
	"github.com/shopspring/decimal"
)

// CessRate is the mandi cess levy applied to every completed trade.
var CessRate = decimal.NewFromFloat(0.05)

const currencyPlaces = 2

// ValidationError reports a rejected arithmetic input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// round quantizes to two decimal places, rounding halves away from zero.
// Inputs are non-negative by the time this runs, so this is half-up.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(currencyPlaces)
}

// TotalAmount computes quantity × unit price rounded to two decimal places.
// Both inputs must be strictly positive.
func TotalAmount(quantity, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, invalid("quantity", "quantity must be positive")
	}
	if unitPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, invalid("unit_price", "unit price must be positive")
	}
	return round(quantity.Mul(unitPrice)), nil
}

// MandiCess computes the 5% levy on a total amount, rounded to two decimal
// places. A zero total yields a zero cess; negative totals are rejected.
func MandiCess(total decimal.Decimal) (decimal.Decimal, error) {
	if total.IsNegative() {
		return decimal.Zero, invalid("total_amount", "total amount must be non-negative")
	}
	return round(total.Mul(CessRate)), nil
}

// FinalAmount computes the full money column for a trade: the total, the
// cess on that total, and their sum.
func FinalAmount(quantity, unitPrice decimal.Decimal) (total, cess, final decimal.Decimal, err error) {
	total, err = TotalAmount(quantity, unitPrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	cess, err = MandiCess(total)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	return total, cess, total.Add(cess), nil
}

// ValidateConsistency reports whether stored total and cess figures agree
// with a fresh derivation from quantity and unit price. Figures must match
// to the paisa.
func ValidateConsistency(quantity, unitPrice, total, cess decimal.Decimal) bool {
	wantTotal, err := TotalAmount(quantity, unitPrice)
	if err != nil {
		return false
	}
	wantCess, err := MandiCess(wantTotal)
	if err != nil {
		return false
	}
	return wantTotal.Equal(round(total)) && wantCess.Equal(round(cess))
}

// Derive is the float64 bridge for records that carry currency as JSON
// numbers. It returns total, cess and final for the given quantity and
// unit price, as exact two-decimal values.
func Derive(quantity, unitPrice float64) (total, cess, final float64, err error) {
	t, c, f, err := FinalAmount(decimal.NewFromFloat(quantity), decimal.NewFromFloat(unitPrice))
	if err != nil {
		return 0, 0, 0, err
	}
	return t.InexactFloat64(), c.InexactFloat64(), f.InexactFloat64(), nil
}

// FormatAmount renders a currency value with exactly two decimal places.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(currencyPlaces).StringFixed(currencyPlaces)
}

// ConsistentRecord checks a stored record's figures against its quantity
// and unit price.
func ConsistentRecord(quantity, unitPrice, total, cess float64) bool {
	return ValidateConsistency(
		decimal.NewFromFloat(quantity),
		decimal.NewFromFloat(unitPrice),
		decimal.NewFromFloat(total),
		decimal.NewFromFloat(cess),
	)
}
