package loosejson

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID accepts a JSON string, a number or null. The POS backend keeps user ids in an
// integer column, so digit-only ids are written back as numbers and anything else as a string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s == "" {
		return []byte("null"), nil
	}
	if isInteger(s) {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// isInteger reports whether s is a valid JSON integer literal that fits an int64.
func isInteger(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || digits[0] == '+' || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func (id ID) String() string {
	return string(id)
}
