package loosejson

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Number accepts a JSON number, a numeric string or null. Clients of the POS backend
// send prices and stock either way, so decoding never fails on the value's shape.
type Number struct {
	raw string
	set bool
}

// NumberFromDecimal wraps d for encoding.
func NumberFromDecimal(d decimal.Decimal) Number {
	return Number{raw: d.String(), set: true}
}

// NumberFromInt wraps v for encoding.
func NumberFromInt(v int) Number {
	return NumberFromDecimal(decimal.NewFromInt(int64(v)))
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number{raw: strings.TrimSpace(s), set: true}
		return nil
	}
	*n = Number{raw: string(data), set: true}
	return nil
}

// MarshalJSON writes the value as a JSON number, or null when it does not parse.
func (n Number) MarshalJSON() ([]byte, error) {
	d, ok := n.parse()
	if !ok {
		return []byte("null"), nil
	}
	return []byte(d.String()), nil
}

// IsSet reports whether the field was present and not null.
func (n Number) IsSet() bool {
	return n.set
}

// String returns the raw text as received.
func (n Number) String() string {
	return n.raw
}

// Decimal returns the parsed value, zero when missing or malformed.
func (n Number) Decimal() decimal.Decimal {
	d, _ := n.parse()
	return d
}

// Int returns the integer part of the value, zero when missing or malformed.
func (n Number) Int() int {
	d, _ := n.parse()
	return int(d.IntPart())
}

func (n Number) parse() (decimal.Decimal, bool) {
	if !n.set || n.raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
