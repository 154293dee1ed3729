// Package valueobject holds the immutable values shared by the finance
// aggregates: Money in integer cents and calendar Dates.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents. The zero value is zero. Arithmetic
// never rounds; rounding happens once, when converting from decimal.
type Money struct {
	cents int64
}

// MaxCents is the largest magnitude a NUMERIC(18,2) column holds:
// 9,999,999,999,999,999.99 in major units.
const MaxCents int64 = 999_999_999_999_999_999

// ErrAmountOutOfRange reports an amount beyond MaxCents.
var ErrAmountOutOfRange = errors.New("amount out of range")

var maxCentsDecimal = decimal.NewFromInt(MaxCents)

func NewMoney(cents int64) Money { return Money{cents: cents} }

func Zero() Money { return Money{} }

// MoneyFromDecimal converts major units to cents, rounding half away from
// zero (0.005 is one cent, -1.255 is -126 cents).
func MoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{cents: amount.Shift(2).Round(0).IntPart()}
}

// RoundCents rounds an amount expressed in cents to a whole cent, half away
// from zero. Results beyond MaxCents fail with ErrAmountOutOfRange.
func RoundCents(cents decimal.Decimal) (Money, error) {
	rounded := cents.Round(0)
	if rounded.Abs().GreaterThan(maxCentsDecimal) {
		return Money{}, fmt.Errorf("%w: %s cents", ErrAmountOutOfRange, rounded.String())
	}
	return Money{cents: rounded.IntPart()}, nil
}

// ParseMoney reads a major unit amount such as "123.45".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	m, err := RoundCents(d.Shift(2))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return m, nil
}

func (m Money) Cents() int64 { return m.cents }

// Decimal is the amount in major units, exact to the cent.
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.cents, -2) }

func (m Money) Add(o Money) Money      { return Money{cents: m.cents + o.cents} }
func (m Money) Subtract(o Money) Money { return Money{cents: m.cents - o.cents} }

// InRange reports |m| <= MaxCents. Sums of up to nine in-range amounts
// cannot overflow int64.
func (m Money) InRange() bool { return m.cents >= -MaxCents && m.cents <= MaxCents }

func (m Money) IsZero() bool     { return m.cents == 0 }
func (m Money) IsPositive() bool { return m.cents > 0 }
func (m Money) IsNegative() bool { return m.cents < 0 }

// Cmp returns -1, 0 or +1 as m is less than, equal to or greater than o.
func (m Money) Cmp(o Money) int {
	switch {
	case m.cents < o.cents:
		return -1
	case m.cents > o.cents:
		return 1
	}
	return 0
}

func (m Money) GreaterThan(o Money) bool { return m.cents > o.cents }

// WithinTolerance reports |m - o| <= tolerance. The difference is taken in
// uint64, so it is exact for any pair of amounts.
func (m Money) WithinTolerance(o, tolerance Money) bool {
	if tolerance.cents < 0 {
		return false
	}
	var diff uint64
	if m.cents >= o.cents {
		diff = uint64(m.cents) - uint64(o.cents)
	} else {
		diff = uint64(o.cents) - uint64(m.cents)
	}
	return diff <= uint64(tolerance.cents)
}

// String formats major units with two decimals, e.g. "-3.00".
func (m Money) String() string { return m.Decimal().StringFixed(2) }

// MarshalJSON writes integer cents.
func (m Money) MarshalJSON() ([]byte, error) { return json.Marshal(m.cents) }

// UnmarshalJSON accepts integer cents only; "49.99" or 49.99 is rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	var cents int64
	if err := json.Unmarshal(data, &cents); err != nil {
		return fmt.Errorf("money must be an integer amount of cents: %w", err)
	}
	m.cents = cents
	return nil
}

// Value stores the amount in a NUMERIC(18,2) column.
func (m Money) Value() (driver.Value, error) { return m.String(), nil }

// Scan reads NUMERIC columns, which drivers return as text, bytes or
// floats. NULL scans as zero.
func (m *Money) Scan(value any) error {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := value.(type) {
	case nil:
		*m = Money{}
		return nil
	case string:
		d, err = decimal.NewFromString(v)
	case []byte:
		d, err = decimal.NewFromString(string(v))
	case float64:
		d = decimal.NewFromFloat(v)
	case int64:
		d = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	if err != nil {
		return fmt.Errorf("invalid decimal value %v: %w", value, err)
	}
	parsed, err := RoundCents(d.Shift(2))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
