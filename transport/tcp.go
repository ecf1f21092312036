package transport

import (
	"net"
	"strconv"
	"sync"
)

// DefaultHost is used by the networked transports when no host is given.
const DefaultHost = "127.0.0.1"

// TCPTransport carries messages over TCP. Like the unix variant it is
// connection-oriented: every request rides its own accepted connection, which
// Reply closes after one response.
type TCPTransport struct {
	host string
	port int

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// TCP returns a transport for host:port. An empty host means loopback.
func TCP(host string, port int) *TCPTransport {
	if host == "" {
		host = DefaultHost
	}
	return &TCPTransport{host: host, port: port}
}

func (t *TCPTransport) addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// Bind opens the listening socket on all interfaces at the configured port.
func (t *TCPTransport) Bind() error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(t.port)))
	if err != nil {
		return &BindError{Addr: t.addr(), Err: err}
	}
	t.mu.Lock()
	t.ln = ln
	t.mu.Unlock()
	return nil
}

// Receive accepts one connection and reads one message from it.
func (t *TCPTransport) Receive() ([]byte, Handle, error) {
	t.mu.Lock()
	ln := t.ln
	t.mu.Unlock()
	return acceptOne(ln)
}

// Reply writes data to the connection behind h and closes it.
func (t *TCPTransport) Reply(data []byte, h Handle) error {
	return replyConn(data, h)
}

// Send dials the configured destination, writes data and reads one reply.
func (t *TCPTransport) Send(data []byte) ([]byte, error) {
	return roundTrip("tcp", t.addr(), data)
}

// Close shuts the listener down. Safe to call more than once.
func (t *TCPTransport) Close() error {
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
