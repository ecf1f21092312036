// Package pool implements the fixed-size worker pool backing concurrent
// request handling in the socks server. Tasks run FIFO on a set of worker
// goroutines; the pool shuts down either gracefully (drain the queue, then
// join) or immediately (abandon queued tasks, join).
package pool

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is one owned unit of work. It travels from Enqueue to a single worker
// and is never shared.
type Task func()

// ErrClosed is returned by Enqueue and Submit once the pool is draining or
// terminated.
var ErrClosed = errors.New("pool: closed")

// Pool is a fixed-size worker pool. After Wait or Terminate the pool is inert
// and cannot be reused.
type Pool struct {
	mu        sync.Mutex
	cond      *sync.Cond
	tasks     []Task
	stop      bool // graceful: drain the queue, then exit
	terminate bool // immediate: abandon queued tasks
	wg        sync.WaitGroup
	log       *zap.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool's logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// New starts a pool of workers goroutines. A count below one is raised to
// one.
func New(workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{log: zap.NewNop()}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	p.log.Info("starting worker pool", zap.Int("workers", workers))
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for !p.terminate && !p.stop && len(p.tasks) == 0 {
			p.cond.Wait()
		}
		if p.terminate {
			p.mu.Unlock()
			return
		}
		if len(p.tasks) == 0 {
			// stop with an empty queue: drained
			p.mu.Unlock()
			return
		}
		task := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.mu.Unlock()

		p.run(task)
	}
}

// run executes one task, swallowing a panic so a failing task never kills a
// worker.
func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

// Enqueue appends a fire-and-forget task and wakes one idle worker. It fails
// with ErrClosed once the pool is draining or terminated.
func (p *Pool) Enqueue(task Task) error {
	p.mu.Lock()
	if p.stop || p.terminate {
		p.mu.Unlock()
		return ErrClosed
	}
	p.tasks = append(p.tasks, task)
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

// Future resolves to the outcome of a task handed to Submit.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

// Wait blocks until the task has completed and returns its outcome.
func (f *Future) Wait() (any, error) {
	<-f.done
	return f.value, f.err
}

// Done returns a channel closed once the task has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Submit enqueues fn and returns a Future for its result. A panic inside fn
// resolves the future with an error.
func (p *Pool) Submit(fn func() (any, error)) (*Future, error) {
	f := &Future{done: make(chan struct{})}
	err := p.Enqueue(func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		f.value, f.err = fn()
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Wait stops accepting new tasks, lets the workers drain the queue and joins
// them. Every task enqueued before Wait runs exactly once.
func (p *Pool) Wait() {
	p.mu.Lock()
	p.stop = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
	p.log.Info("worker pool drained, all workers joined")
}

// Terminate signals the workers to exit as soon as they notice the flag:
// tasks already running finish, queued-but-unstarted tasks never run.
func (p *Pool) Terminate() {
	p.mu.Lock()
	p.terminate = true
	abandoned := len(p.tasks)
	p.tasks = nil
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
	p.log.Warn("worker pool terminated", zap.Int("abandoned_tasks", abandoned))
}
