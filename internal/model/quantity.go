package model

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var quantityPattern = regexp.MustCompile(`^[0-9]+$`)

// Quantity is a non-negative integer amount of an asset.
//
// Quantities travel as decimal strings and are compared with arbitrary
// precision. The zero value is a valid zero quantity.
type Quantity struct {
	d decimal.Decimal
}

// ZeroQuantity is the additive identity.
var ZeroQuantity = Quantity{}

// ParseQuantity parses an unsigned base-10 integer string.
// Signs, fractions, exponents and whitespace are rejected.
func ParseQuantity(s string) (Quantity, error) {
	if !quantityPattern.MatchString(s) {
		return Quantity{}, &ValidationError{Field: "quantity", Message: fmt.Sprintf("invalid quantity %q", s)}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, &ValidationError{Field: "quantity", Message: fmt.Sprintf("invalid quantity %q", s)}
	}
	return Quantity{d: d}, nil
}

// MustQuantity is like ParseQuantity but panics on error.
// Use only in tests or with literal inputs.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) String() string {
	return q.d.String()
}

// IsZero reports whether q is zero.
func (q Quantity) IsZero() bool {
	return q.d.IsZero()
}

// Cmp returns -1, 0 or +1 comparing q to other.
func (q Quantity) Cmp(other Quantity) int {
	return q.d.Cmp(other.d)
}

// Equal reports whether q and other are the same amount.
func (q Quantity) Equal(other Quantity) bool {
	return q.d.Equal(other.d)
}

// Add returns q + other.
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{d: q.d.Add(other.d)}
}

// Sub returns q - other, or false when the result would be negative.
func (q Quantity) Sub(other Quantity) (Quantity, bool) {
	if q.d.LessThan(other.d) {
		return Quantity{}, false
	}
	return Quantity{d: q.d.Sub(other.d)}, true
}

// MarshalJSON encodes the quantity as a decimal string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// UnmarshalJSON decodes a decimal string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	parsed, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
