package socks

import (
	"encoding/json"
	"errors"
)

// Reserved envelope keys forming the wire contract. Every request carries
// KeyCommand; every well-formed response carries KeySuccess and, on failure,
// KeyMessage. These are the only places the reserved keys are spelled.
const (
	KeyCommand = "command"
	KeySuccess = "success"
	KeyMessage = "message"
)

// Envelope is one JSON message exchanged between client and server. The top
// level is always an object, never a scalar or array.
type Envelope map[string]any

// Okay returns a copy of fields marked as a success response.
func Okay(fields Envelope) Envelope {
	res := fields.clone()
	res[KeySuccess] = true
	return res
}

// Fail returns a copy of fields marked as a failure response carrying msg.
func Fail(fields Envelope, msg string) Envelope {
	res := fields.clone()
	res[KeySuccess] = false
	res[KeyMessage] = msg
	return res
}

// OK reports whether the envelope is a well-formed success response. A
// missing or non-boolean success key counts as failure.
func (e Envelope) OK() bool {
	ok, _ := e[KeySuccess].(bool)
	return ok
}

// Message returns the failure message, or fallback when absent.
func (e Envelope) Message(fallback string) string {
	if msg, ok := e[KeyMessage].(string); ok {
		return msg
	}
	return fallback
}

// Command returns the routed command name, or fallback when absent.
func (e Envelope) Command(fallback string) string {
	if cmd, ok := e[KeyCommand].(string); ok {
		return cmd
	}
	return fallback
}

func (e Envelope) clone() Envelope {
	res := make(Envelope, len(e)+2)
	for k, v := range e {
		res[k] = v
	}
	return res
}

// EncodeEnvelope serializes e as UTF-8 JSON text.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses data as a JSON object. Malformed text, or a scalar or
// array at the top level, yields a *ParseError.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, &ParseError{Err: err}
	}
	if e == nil {
		// json.Unmarshal accepts a bare null without error
		return nil, &ParseError{Err: errors.New("top-level value must be an object")}
	}
	return e, nil
}
