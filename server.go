package socks

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/codefionn/socks/pool"
	"github.com/codefionn/socks/transport"
)

// Handler implements one named command. A non-nil error is converted by the
// server into a failure envelope carrying the error's message; handlers may
// also report failure themselves by returning a Fail envelope. Handlers run
// concurrently when the server has a worker pool and must not block
// indefinitely: the pool makes no liveness guarantee against a misbehaving
// handler.
type Handler func(req Envelope) (Envelope, error)

// missingCommand tags requests that carry no command key.
const missingCommand = "<unknown>"

// Server routes JSON envelopes received over a transport to registered
// command handlers. The serve loop receives one message at a time on a single
// goroutine; handler execution fans out to the worker pool when one is
// configured and runs inline otherwise.
type Server struct {
	tr       transport.Transport
	workers  *pool.Pool
	handlers map[string]Handler
	log      *zap.Logger

	mu      sync.Mutex
	running bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithPool executes handlers on p instead of the serve-loop goroutine. Slow
// handlers then no longer stall new accepts, at the cost of reply ordering
// across clients.
func WithPool(p *pool.Pool) ServerOption {
	return func(s *Server) { s.workers = p }
}

// WithServerLogger sets the server's logger. The default discards everything.
func WithServerLogger(l *zap.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// NewServer creates a server over tr. The server does not own a configured
// pool; the caller stops it after Stop.
func NewServer(tr transport.Transport, opts ...ServerOption) *Server {
	s := &Server{
		tr:       tr,
		handlers: make(map[string]Handler),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddHandler registers or overwrites the handler for command. Registration
// must complete before Start: the registry is read without synchronization
// while serving.
func (s *Server) AddHandler(command string, h Handler) {
	s.handlers[command] = h
}

// Start binds the transport and serves requests on the calling goroutine
// until Stop.
func (s *Server) Start() error {
	if err := s.begin(); err != nil {
		return err
	}
	s.serve()
	return nil
}

// ServeBackground binds the transport and runs the serve loop on its own
// goroutine, returning once the transport is bound.
func (s *Server) ServeBackground() error {
	if err := s.begin(); err != nil {
		return err
	}
	go s.serve()
	return nil
}

func (s *Server) begin() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.tr.Bind(); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}
	s.log.Info("server started, waiting for requests")
	return nil
}

// Stop halts the serve loop and closes the transport. Safe to call more than
// once.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	if err := s.tr.Close(); err != nil {
		s.log.Warn("transport close failed", zap.Error(err))
	}
	s.log.Info("server stopped")
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) serve() {
	for {
		data, h, err := s.tr.Receive()
		if err != nil {
			if !s.isRunning() {
				return
			}
			// recoverable: log and keep accepting
			s.log.Error("receive failed", zap.Error(err))
			continue
		}

		task := func() { s.handle(data, h) }
		if s.workers == nil {
			task()
			continue
		}
		if err := s.workers.Enqueue(task); err != nil {
			s.log.Warn("worker pool rejected task, running inline", zap.Error(err))
			task()
		}
	}
}

// handle produces the response for one raw message and replies to its sender.
func (s *Server) handle(data []byte, h transport.Handle) {
	resp := s.dispatch(data)
	out, err := EncodeEnvelope(resp)
	if err != nil {
		s.log.Error("response not encodable", zap.Error(err))
		out, _ = EncodeEnvelope(Fail(nil, "internal error: response not encodable"))
	}
	if err := s.tr.Reply(out, h); err != nil {
		s.log.Error("send failed", zap.String("peer", h.String()), zap.Error(err))
	}
}

// dispatch decodes, routes and executes one request, always producing a
// response envelope.
func (s *Server) dispatch(data []byte) Envelope {
	req, err := DecodeEnvelope(data)
	if err != nil {
		s.log.Error("malformed request", zap.Error(err))
		return Fail(nil, err.Error())
	}

	command := req.Command(missingCommand)
	s.log.Debug("received request", zap.String("command", command))

	handler, ok := s.handlers[command]
	if !ok {
		s.log.Warn("unknown command", zap.String("command", command))
		return Fail(nil, "Unknown command: "+command)
	}

	resp, err := s.invoke(handler, req)
	if err != nil {
		s.log.Error("command failed", zap.String("command", command), zap.Error(err))
		return Fail(nil, err.Error())
	}
	if resp.OK() {
		s.log.Debug("command handled", zap.String("command", command))
	} else {
		s.log.Warn("command reported failure",
			zap.String("command", command),
			zap.String("message", resp.Message("no error message")))
	}
	return resp
}

// invoke runs h, converting a panic into an error so one bad handler can
// never kill a worker or the serve loop.
func (s *Server) invoke(h Handler, req Envelope) (resp Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(req)
}
