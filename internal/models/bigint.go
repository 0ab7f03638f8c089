package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// BigInt is an arbitrary-precision integer that serializes as a decimal string.
// It accepts JSON strings (decimal or 0x-hex) and integral JSON numbers, so ids
// and amounts never pass through float64.
type BigInt big.Int

// NewBigInt wraps x. A nil x yields nil.
func NewBigInt(x *big.Int) *BigInt {
	if x == nil {
		return nil
	}
	return (*BigInt)(new(big.Int).Set(x))
}

// BigIntFromInt64 is a convenience constructor for small constants
func BigIntFromInt64(v int64) *BigInt {
	return (*BigInt)(big.NewInt(v))
}

// ParseBigInt parses a decimal or 0x-prefixed hex integer
func ParseBigInt(s string) (*BigInt, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty integer")
	}
	v := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = v.SetString(s[2:], 16)
	} else {
		_, ok = v.SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return (*BigInt)(v), nil
}

// Int returns the underlying value. Callers must not mutate it.
func (b *BigInt) Int() *big.Int {
	if b == nil {
		return nil
	}
	return (*big.Int)(b)
}

// Equal compares against x by value; two nils are equal
func (b *BigInt) Equal(x *big.Int) bool {
	if b == nil || x == nil {
		return b == nil && x == nil
	}
	return b.Int().Cmp(x) == 0
}

func (b *BigInt) String() string {
	if b == nil {
		return "<nil>"
	}
	return b.Int().String()
}

// MarshalJSON encodes the value as a decimal string
func (b *BigInt) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal(b.Int().String())
}

// UnmarshalJSON accepts "123", "0x7b" and 123
func (b *BigInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("integer must be a string or number: %w", err)
		}
		s = n.String()
	}

	parsed, err := ParseBigInt(s)
	if err != nil {
		return err
	}
	(*big.Int)(b).Set(parsed.Int())
	return nil
}
