package socks

import (
	"sync"

	"go.uber.org/zap"

	"github.com/codefionn/socks/transport"
)

// Client issues JSON envelope requests over a transport. All three call
// styles funnel through one mutex, so requests on a single Client never
// interleave on the wire; use one Client per desired lane of parallelism,
// each owning its own transport.
type Client struct {
	mu  sync.Mutex
	tr  transport.Transport
	log *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client's logger. The default discards everything.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client over tr.
func NewClient(tr transport.Transport, opts ...ClientOption) *Client {
	c := &Client{tr: tr, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends request tagged with command and blocks until the reply arrives.
// A failure envelope (success false or absent) is returned as a *RemoteError
// carrying the reply's message.
func (c *Client) Call(command string, request Envelope) (Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := request.clone()
	req[KeyCommand] = command
	data, err := EncodeEnvelope(req)
	if err != nil {
		return nil, err
	}

	c.log.Debug("sending request", zap.String("command", command))
	raw, err := c.tr.Send(data)
	if err != nil {
		return nil, err
	}

	resp, err := DecodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &RemoteError{Message: resp.Message("unknown server error")}
	}
	return resp, nil
}

// FutureReply resolves to the outcome of an asynchronous call.
type FutureReply struct {
	done chan struct{}
	resp Envelope
	err  error
}

// Get blocks until the call has completed and returns its outcome.
func (f *FutureReply) Get() (Envelope, error) {
	<-f.done
	return f.resp, f.err
}

// Done returns a channel closed once the call has completed.
func (f *FutureReply) Done() <-chan struct{} {
	return f.done
}

// CallAsync runs Call on its own goroutine and returns a future for the
// reply. The future propagates the same errors Call would return, including
// *RemoteError.
func (c *Client) CallAsync(command string, request Envelope) *FutureReply {
	f := &FutureReply{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = c.Call(command, request)
	}()
	return f
}

// CallBackground fires the request on a detached goroutine. onComplete is
// invoked exactly once: with the successful response, or with a synthesized
// failure envelope carrying the error text. No error escapes to the caller
// out of band.
func (c *Client) CallBackground(command string, request Envelope, onComplete func(Envelope)) {
	go func() {
		resp, err := c.Call(command, request)
		if err != nil {
			resp = Fail(nil, err.Error())
		}
		if onComplete != nil {
			onComplete(resp)
		}
	}()
}

// Close releases the client's transport.
func (c *Client) Close() error {
	return c.tr.Close()
}
