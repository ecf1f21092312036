// Package transport provides the pluggable message transports used by the
// socks server and client: unix domain sockets, UDP, TCP and websockets.
//
// Every variant satisfies the same contract: one Receive call yields exactly
// one logical message, even though the underlying media differ (accepted
// stream connections vs. datagrams vs. websocket frames). The stream variants
// read at most BufferSize bytes per message; longer messages are truncated,
// which callers observe as a JSON parse failure rather than a transport
// error.
package transport

// BufferSize is the maximum message size in bytes. Stream transports read one
// buffer of this size per message; anything beyond it is truncated.
const BufferSize = 2048

// Handle identifies the peer of one received message and addresses the
// matching reply. A handle is valid for exactly one Reply: the
// connection-oriented variants close the underlying connection once the reply
// is written, while the datagram variant's handle is a reusable address
// tuple.
type Handle interface {
	String() string
}

// Transport abstracts a bidirectional one-message-at-a-time channel. The
// server side drives Bind/Receive/Reply from a single goroutine; the client
// side uses Send for a synchronous round trip.
type Transport interface {
	// Bind prepares the transport to accept incoming messages, e.g. by
	// opening and binding a listening endpoint. It must be called once
	// before the first Receive and fails with a *BindError when the
	// address or path is unavailable.
	Bind() error

	// Receive blocks until one message is available and returns the raw
	// message body together with an opaque sender handle. I/O failures
	// surface as a *ReceiveError and are recoverable: the caller should
	// log and keep receiving.
	Receive() ([]byte, Handle, error)

	// Reply delivers a response to the peer identified during Receive.
	// Failures surface as a *SendError and are non-fatal to the serve
	// loop.
	Reply(data []byte, h Handle) error

	// Send performs a client-side round trip: establish or reuse a
	// destination, write data, block for exactly one reply and return it.
	Send(data []byte) ([]byte, error)

	// Close releases all transport resources. It is idempotent. The
	// net-based variants unblock a pending Receive via the runtime
	// poller, but the contract does not promise it; callers must not
	// depend on a blocked Receive or Send returning promptly.
	Close() error
}
