package transport

import "net"

// connHandle addresses the reply for one accepted stream connection. Reply
// closes the connection after writing, so the handle is single-use.
type connHandle struct {
	conn net.Conn
}

func (h *connHandle) String() string {
	if addr := h.conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	return "conn"
}

// acceptOne accepts a connection and reads one message of at most BufferSize
// bytes from it.
func acceptOne(ln net.Listener) ([]byte, Handle, error) {
	if ln == nil {
		return nil, nil, &ReceiveError{Err: errNotBound}
	}
	conn, err := ln.Accept()
	if err != nil {
		return nil, nil, &ReceiveError{Err: err}
	}
	buf := make([]byte, BufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		conn.Close()
		return nil, nil, &ReceiveError{Err: err}
	}
	return buf[:n], &connHandle{conn: conn}, nil
}

// replyConn writes data to the accepted connection and closes it, consuming
// the handle.
func replyConn(data []byte, h Handle) error {
	ch, ok := h.(*connHandle)
	if !ok {
		return &SendError{Err: errBadHandle}
	}
	defer ch.conn.Close()
	if _, err := ch.conn.Write(data); err != nil {
		return &SendError{Err: err}
	}
	return nil
}

// roundTrip dials, writes one message and reads one reply of at most
// BufferSize bytes.
func roundTrip(network, addr string, data []byte) ([]byte, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
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
