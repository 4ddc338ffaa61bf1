package types

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency value persisted and rendered with exactly two decimals.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(2)}
}

// ParseAmount accepts "10", "10.5", "10.00" and "10,50".
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Amount{}, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewAmount(d), nil
}

func (a Amount) String() string {
	return a.Decimal.StringFixed(2)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = NewAmount(d)
	return nil
}

func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*a = NewAmount(d)
	return nil
}
