package transport

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// WSTransport carries messages over websocket frames behind an embedded HTTP
// server. Websocket framing is message-oriented, so the one-receive-one-
// message contract holds without the fixed read buffer; the same limit is
// still enforced via SetReadLimit to keep behavior uniform with the other
// variants. Each accepted connection serves a single request/reply exchange.
type WSTransport struct {
	host string
	port int
	path string

	mu     sync.Mutex
	srv    *http.Server
	done   chan struct{}
	inbox  chan wsMessage
	closed bool
}

type wsMessage struct {
	data []byte
	conn *websocket.Conn
}

// wsHandle addresses the reply for one websocket request. Reply closes the
// connection, so the handle is single-use.
type wsHandle struct {
	conn *websocket.Conn
}

func (h *wsHandle) String() string {
	return h.conn.RemoteAddr().String()
}

// WebSocket returns a transport serving ws://host:port/path. An empty host
// means loopback, an empty path means "/".
func WebSocket(host string, port int, path string) *WSTransport {
	if host == "" {
		host = DefaultHost
	}
	if path == "" {
		path = "/"
	}
	return &WSTransport{host: host, port: port, path: path}
}

func (t *WSTransport) addr() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

func (t *WSTransport) url() string {
	return fmt.Sprintf("ws://%s%s", t.addr(), t.path)
}

// Bind starts the embedded HTTP server and begins accepting websocket
// connections.
func (t *WSTransport) Bind() error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(t.port)))
	if err != nil {
		return &BindError{Addr: t.addr(), Err: err}
	}

	t.mu.Lock()
	t.done = make(chan struct{})
	t.inbox = make(chan wsMessage, 16)
	mux := http.NewServeMux()
	mux.HandleFunc(t.path, t.serveWS)
	t.srv = &http.Server{Handler: mux}
	srv := t.srv
	t.mu.Unlock()

	go srv.Serve(ln)
	return nil
}

func (t *WSTransport) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  BufferSize,
		WriteBufferSize: BufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true // local IPC, no browser origin policy
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(BufferSize)

	// Pump one message per connection into the shared inbox. The reply
	// path closes the connection, so the second ReadMessage fails and the
	// pump exits.
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				conn.Close()
				return
			}
			select {
			case t.inbox <- wsMessage{data: data, conn: conn}:
			case <-t.done:
				conn.Close()
				return
			}
		}
	}()
}

// Receive blocks until a connection delivers one message.
func (t *WSTransport) Receive() ([]byte, Handle, error) {
	t.mu.Lock()
	inbox, done := t.inbox, t.done
	t.mu.Unlock()
	if inbox == nil {
		return nil, nil, &ReceiveError{Err: errNotBound}
	}
	select {
	case msg := <-inbox:
		return msg.data, &wsHandle{conn: msg.conn}, nil
	case <-done:
		return nil, nil, &ReceiveError{Err: net.ErrClosed}
	}
}

// Reply writes one message frame to the connection behind h and closes it.
func (t *WSTransport) Reply(data []byte, h Handle) error {
	wh, ok := h.(*wsHandle)
	if !ok {
		return &SendError{Err: errBadHandle}
	}
	defer wh.conn.Close()
	if err := wh.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &SendError{Err: err}
	}
	return nil
}

// Send dials the websocket endpoint, writes data and reads one reply frame.
func (t *WSTransport) Send(data []byte) ([]byte, error) {
	conn, _, err := websocket.DefaultDialer.Dial(t.url(), nil)
	if err != nil {
		return nil, &ConnectError{Addr: t.url(), Err: err}
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, &SendError{Err: err}
	}
	_, reply, err := conn.ReadMessage()
	if err != nil {
		return nil, &ReceiveError{Err: err}
	}
	return reply, nil
}

// Close stops the HTTP server and unblocks a pending Receive. Safe to call
// more than once.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.done != nil {
		close(t.done)
	}
	if t.srv == nil {
		return nil
	}
	return t.srv.Close()
}
