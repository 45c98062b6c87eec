package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type mockComponent struct {
	started atomic.Bool
	stopped atomic.Bool
	startFn func() error
}

func (m *mockComponent) Start() error {
	m.started.Store(true)
	if m.startFn != nil {
		return m.startFn()
	}
	// Block until stopped
	for !m.stopped.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (m *mockComponent) Stop() {
	m.stopped.Store(true)
}

func TestManagerStartsAndStopsComponents(t *testing.T) {
	mgr := NewManager(zaptest.NewLogger(t))

	c1 := &mockComponent{}
	c2 := &mockComponent{}
	mgr.Add("c1", c1)
	mgr.Add("c2", c2)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- mgr.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if c1.started.Load() && c2.started.Load() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("components did not start in time")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not shut down in time")
	}

	assert.True(t, c1.stopped.Load())
	assert.True(t, c2.stopped.Load())
}

func TestManagerReturnsWhenAllComponentsFinish(t *testing.T) {
	mgr := NewManager(zaptest.NewLogger(t))
	mgr.Add("one-shot", &FuncComponent{
		StartFn: func() error { return nil },
		StopFn:  func() {},
	})

	done := make(chan error, 1)
	go func() {
		done <- mgr.Run(context.Background())
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not return after components finished")
	}
}

func TestManagerPropagatesComponentError(t *testing.T) {
	mgr := NewManager(zaptest.NewLogger(t))
	boom := errors.New("boom")
	mgr.Add("failing", &mockComponent{startFn: func() error { return boom }})

	err := mgr.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFuncComponent(t *testing.T) {
	started := false
	stopped := false

	c := &FuncComponent{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func() {
			stopped = true
		},
	}

	assert.NoError(t, c.Start())
	assert.True(t, started)

	c.Stop()
	assert.True(t, stopped)
}
