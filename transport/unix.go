package transport

import (
	"net"
	"os"
	"sync"
)

// UnixTransport carries messages over a unix domain stream socket identified
// by a filesystem path. The same value serves both sides: a server calls
// Bind/Receive/Reply, a client calls Send.
type UnixTransport struct {
	path string

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// Unix returns a transport bound to the unix socket at path.
func Unix(path string) *UnixTransport {
	return &UnixTransport{path: path}
}

// Bind opens the listening socket, removing a stale socket file left behind
// by a previous run.
func (t *UnixTransport) Bind() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return &BindError{Addr: t.path, Err: err}
	}
	ln, err := net.Listen("unix", t.path)
	if err != nil {
		return &BindError{Addr: t.path, Err: err}
	}
	t.mu.Lock()
	t.ln = ln
	t.mu.Unlock()
	return nil
}

// Receive accepts one connection and reads one message from it. The returned
// handle keeps the connection open until Reply.
func (t *UnixTransport) Receive() ([]byte, Handle, error) {
	t.mu.Lock()
	ln := t.ln
	t.mu.Unlock()
	return acceptOne(ln)
}

// Reply writes data to the connection behind h and closes it.
func (t *UnixTransport) Reply(data []byte, h Handle) error {
	return replyConn(data, h)
}

// Send dials the socket path, writes data and reads one reply.
func (t *UnixTransport) Send(data []byte) ([]byte, error) {
	return roundTrip("unix", t.path, data)
}

// Close shuts the listener down; the socket file is unlinked by the net
// package. Safe to call more than once.
func (t *UnixTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.ln == nil {
		return nil
	}
	return t.ln.Close()
}
