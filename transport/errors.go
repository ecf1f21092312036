package transport

import (
	"errors"
	"fmt"
)

// errBadHandle is wrapped in a *SendError when Reply is given a handle that
// was not produced by the matching Receive.
var errBadHandle = errors.New("handle does not belong to this transport")

// errNotBound is wrapped in a *ReceiveError when Receive is called before a
// successful Bind.
var errNotBound = errors.New("transport is not bound")

// BindError reports a failure to open or bind the listening endpoint.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// ConnectError reports a client-side failure to reach the destination.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SendError reports a failure to write a message.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return "send: " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError reports a failure to read a message.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string {
	return "receive: " + e.Err.Error()
}

func (e *ReceiveError) Unwrap() error { return e.Err }
