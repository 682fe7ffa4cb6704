package importer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal amount string like "46.46" into minor
// units. Amounts must be positive and carry at most two fractional digits;
// sign is expressed through the transaction type, never the amount.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("amount %q must be positive", s)
	}

	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	return cents.IntPart(), nil
}
