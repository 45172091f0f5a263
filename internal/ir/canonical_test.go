package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9
	got, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical([]any{"ok", struct{}{}})
	assert.Error(t, err)
}

func TestMarshalCanonical_Records(t *testing.T) {
	m := ModelRecords{
		Blocks: []BlockRecord{{ID: "1", Name: "u", Kind: KindInport, Port: true, Line: 9}},
		Lines:  []LineRecord{{Src: Endpoint{Block: "1"}, Dst: &Endpoint{Block: "2", Port: "1"}}},
	}

	got, err := MarshalCanonical(m)
	require.NoError(t, err)
	assert.Equal(t,
		`{"blocks":[{"id":"1","kind":"Inport","name":"u","params":{},"port":true,"port_name":""}],`+
			`"lines":[{"branches":[],"dst":{"block":"2","port":"1"},"src":{"block":"1","port":""}}]}`,
		string(got))
}
