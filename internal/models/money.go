package models

import "fmt"

// Money is a monetary amount in the smallest currency unit.
// All arithmetic is integer-only.
type Money int64

// MaxZero returns m, or 0 when m is negative.
func (m Money) MaxZero() Money {
	if m < 0 {
		return 0
	}
	return m
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m > 0 }

// String formats the amount with two decimal places, e.g. "3400.00".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
