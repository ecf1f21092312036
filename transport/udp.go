package transport

import (
	"net"
	"strconv"
	"sync"
)

// UDPTransport carries messages as single datagrams. It is connectionless:
// the handle returned by Receive is the sender's address tuple and stays
// usable for any number of replies, though the dispatch loop sends exactly
// one.
type UDPTransport struct {
	host string
	port int

	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
}

// UDP returns a transport for host:port. An empty host means loopback; the
// server side ignores the host and binds the port on all interfaces.
func UDP(host string, port int) *UDPTransport {
	if host == "" {
		host = DefaultHost
	}
	return &UDPTransport{host: host, port: port}
}

func (t *UDPTransport) addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// datagramHandle is the reusable "<ip>:<port>" identity of a datagram sender.
type datagramHandle struct {
	addr *net.UDPAddr
}

func (h *datagramHandle) String() string {
	return h.addr.String()
}

// Bind opens the server-side datagram socket.
func (t *UDPTransport) Bind() error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: t.port})
	if err != nil {
		return &BindError{Addr: t.addr(), Err: err}
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

// Receive reads one datagram. The handle carries the sender's address.
func (t *UDPTransport) Receive() ([]byte, Handle, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil, nil, &ReceiveError{Err: errNotBound}
	}
	buf := make([]byte, BufferSize)
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, &ReceiveError{Err: err}
	}
	return buf[:n], &datagramHandle{addr: addr}, nil
}

// Reply sends one datagram back to the address behind h.
func (t *UDPTransport) Reply(data []byte, h Handle) error {
	dh, ok := h.(*datagramHandle)
	if !ok {
		return &SendError{Err: errBadHandle}
	}
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return &SendError{Err: errNotBound}
	}
	if _, err := conn.WriteToUDP(data, dh.addr); err != nil {
		return &SendError{Err: err}
	}
	return nil
}

// Send writes one datagram to the configured destination from a fresh client
// socket and blocks for one reply datagram.
func (t *UDPTransport) Send(data []byte) ([]byte, error) {
	raddr, err := net.ResolveUDPAddr("udp", t.addr())
	if err != nil {
		return nil, &ConnectError{Addr: t.addr(), Err: err}
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, &ConnectError{Addr: t.addr(), Err: err}
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return nil, &SendError{Err: err}
	}
	buf := make([]byte, BufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, &ReceiveError{Err: err}
	}
	return buf[:n], nil
}

// Close shuts the server-side socket down. Safe to call more than once.
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
