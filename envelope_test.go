package socks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOkayMarksSuccess(t *testing.T) {
	fields := Envelope{"value": 7}
	resp := Okay(fields)

	assert.True(t, resp.OK())
	assert.Equal(t, 7, resp["value"])
	// the input envelope must stay untouched
	_, tagged := fields[KeySuccess]
	assert.False(t, tagged)
}

func TestFailCarriesMessage(t *testing.T) {
	resp := Fail(nil, "boom")

	assert.False(t, resp.OK())
	assert.Equal(t, "boom", resp.Message("fallback"))
}

func TestOKTreatsMissingSuccessAsFailure(t *testing.T) {
	assert.False(t, Envelope{}.OK())
	assert.False(t, Envelope{KeySuccess: "true"}.OK())
	assert.False(t, Envelope{KeySuccess: false}.OK())
	assert.True(t, Envelope{KeySuccess: true}.OK())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	in := Envelope{
		KeyCommand: "echo",
		"text":     "hello",
		"count":    float64(3),
		"nested":   map[string]any{"flag": true},
		"items":    []any{float64(1), float64(2)},
	}

	data, err := EncodeEnvelope(in)
	require.NoError(t, err)

	out, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`42`, `"text"`, `[1, 2]`, `null`, `{broken`} {
		_, err := DecodeEnvelope([]byte(payload))
		require.Error(t, err, "payload %s", payload)

		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr, "payload %s", payload)
	}
}

func TestCommandFallback(t *testing.T) {
	assert.Equal(t, "echo", Envelope{KeyCommand: "echo"}.Command("<unknown>"))
	assert.Equal(t, "<unknown>", Envelope{}.Command("<unknown>"))
	assert.Equal(t, "<unknown>", Envelope{KeyCommand: 5}.Command("<unknown>"))
}
