package loosejson

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_UnmarshalShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		set     bool
		dec     string
		integer int
	}{
		{name: "number", payload: `{"v": 12.5}`, set: true, dec: "12.5", integer: 12},
		{name: "string", payload: `{"v": " 7 "}`, set: true, dec: "7", integer: 7},
		{name: "null", payload: `{"v": null}`, set: false, dec: "0", integer: 0},
		{name: "missing", payload: `{}`, set: false, dec: "0", integer: 0},
		{name: "garbage string", payload: `{"v": "abc"}`, set: true, dec: "0", integer: 0},
		{name: "empty string", payload: `{"v": ""}`, set: true, dec: "0", integer: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				V Number `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &body))
			assert.Equal(t, tc.set, body.V.IsSet())
			assert.True(t, decimal.RequireFromString(tc.dec).Equal(body.V.Decimal()))
			assert.Equal(t, tc.integer, body.V.Int())
		})
	}
}

func TestNumber_Marshal(t *testing.T) {
	out, err := json.Marshal(map[string]Number{
		"price": NumberFromDecimal(decimal.RequireFromString("9.99")),
		"stock": NumberFromInt(3),
		"none":  {},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 9.99, "stock": 3, "none": null}`, string(out))
}
