package storage

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DecimalText returns the exact text form of d, or nil.
// Stores keep decimals as text so no precision is lost in the column type.
func DecimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ParseDecimalText is the inverse of DecimalText.
func ParseDecimalText(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", *s, err)
	}
	return &d, nil
}
