package pool

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitDrainsEveryTask(t *testing.T) {
	p := New(4)

	var ran atomic.Int64
	const tasks = 64
	for i := 0; i < tasks; i++ {
		require.NoError(t, p.Enqueue(func() { ran.Add(1) }))
	}

	p.Wait()
	assert.Equal(t, int64(tasks), ran.Load())
}

func TestEnqueueAfterStopFails(t *testing.T) {
	p := New(2)
	p.Wait()

	err := p.Enqueue(func() {})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = p.Submit(func() (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEnqueueAfterTerminateFails(t *testing.T) {
	p := New(2)
	p.Terminate()

	assert.ErrorIs(t, p.Enqueue(func() {}), ErrClosed)
}

func TestTerminateAbandonsQueuedTasks(t *testing.T) {
	p := New(1)

	gate := make(chan struct{})
	started := make(chan struct{})
	var ran atomic.Int64

	// occupy the single worker
	require.NoError(t, p.Enqueue(func() {
		close(started)
		<-gate
		ran.Add(1)
	}))
	<-started

	// these are queued, never started
	for i := 0; i < 8; i++ {
		require.NoError(t, p.Enqueue(func() { ran.Add(1) }))
	}

	done := make(chan struct{})
	go func() {
		p.Terminate()
		close(done)
	}()

	// the running task finishes, the queued ones are abandoned
	close(gate)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Terminate did not return")
	}
	assert.Equal(t, int64(1), ran.Load())
}

func TestSubmitResolvesValue(t *testing.T) {
	p := New(2)
	defer p.Wait()

	f, err := p.Submit(func() (any, error) { return 42, nil })
	require.NoError(t, err)

	val, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestSubmitResolvesError(t *testing.T) {
	p := New(2)
	defer p.Wait()

	wantErr := errors.New("task failed")
	f, err := p.Submit(func() (any, error) { return nil, wantErr })
	require.NoError(t, err)

	_, err = f.Wait()
	assert.ErrorIs(t, err, wantErr)
}

func TestSubmitRecoversPanic(t *testing.T) {
	p := New(2)
	defer p.Wait()

	f, err := p.Submit(func() (any, error) { panic("kaboom") })
	require.NoError(t, err)

	_, err = f.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	p := New(1)

	require.NoError(t, p.Enqueue(func() { panic("first task explodes") }))

	var ran atomic.Bool
	require.NoError(t, p.Enqueue(func() { ran.Store(true) }))

	p.Wait()
	assert.True(t, ran.Load())
}

func TestTasksRunInOrderOnSingleWorker(t *testing.T) {
	p := New(1)

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, p.Enqueue(func() { order = append(order, i) }))
	}
	p.Wait()

	require.Len(t, order, 10)
	for i, got := range order {
		assert.Equal(t, i, got)
	}
}
