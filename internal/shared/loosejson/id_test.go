package loosejson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    ID
	}{
		{name: "integer", payload: `{"v": 1}`, want: "1"},
		{name: "large integer", payload: `{"v": 9007199254740993}`, want: "9007199254740993"},
		{name: "string", payload: `{"v": " u1 "}`, want: "u1"},
		{name: "null", payload: `{"v": null}`, want: ""},
		{name: "missing", payload: `{}`, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				V ID `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &body))
			assert.Equal(t, tc.want, body.V)
		})
	}
}

func TestID_UnmarshalRejectsObjects(t *testing.T) {
	var body struct {
		V ID `json:"v"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"v": {"id": 1}}`), &body))
}

func TestID_MarshalKeepsIntegersNumeric(t *testing.T) {
	out, err := json.Marshal(map[string]ID{
		"numeric":  "42",
		"negative": "-3",
		"text":     "u1",
		"padded":   "007",
		"signed":   "+5",
		"empty":    "",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"numeric": 42, "negative": -3, "text": "u1", "padded": "007", "signed": "+5", "empty": null}`, string(out))
}
