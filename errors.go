package socks

// ParseError reports a payload that could not be decoded as a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "malformed envelope: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// RemoteError reports a failure envelope received from the server: the reply
// carried success=false, or no boolean success key at all.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "request failed: " + e.Message
}
