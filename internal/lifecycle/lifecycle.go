// Package lifecycle manages startup and shutdown of the simulator's
// long-running components with signal handling. Unlike a server that runs
// until killed, a simulation finishes on its own, so the manager also
// shuts down once every component's Start has returned cleanly.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Component is a long-running part of the simulator that can be started
// and stopped.
type Component interface {
	// Start begins the component. It should block until the component
	// finishes or an error occurs.
	Start() error
	// Stop gracefully stops the component.
	Stop()
}

// FuncComponent adapts a start/stop function pair into the Component
// interface.
type FuncComponent struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncComponent) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncComponent) Stop() { f.StopFn() }

// Manager starts components in registration order and stops them in
// reverse order.
type Manager struct {
	logger     *zap.Logger
	components []namedComponent
	mu         sync.Mutex
}

type namedComponent struct {
	name      string
	component Component
}

// NewManager creates a lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Add registers a named component. Components are started in the order
// they are added.
//
// Precondition: name must be non-empty; c must be non-nil.
func (m *Manager) Add(name string, c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, namedComponent{name: name, component: c})
}

// Run starts every component and blocks until one of: all components
// finish, a component fails, a termination signal arrives (SIGINT or
// SIGTERM), or ctx is cancelled. Components are then stopped in reverse
// order.
//
// Postcondition: all components are stopped when Run returns.
func (m *Manager) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(m.components))
	var wg sync.WaitGroup
	for _, nc := range m.components {
		nc := nc
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.logger.Info("starting component", zap.String("component", nc.name))
			compStart := time.Now()
			if err := nc.component.Start(); err != nil {
				m.logger.Error("component failed",
					zap.String("component", nc.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(compStart)),
				)
				errCh <- fmt.Errorf("component %s: %w", nc.name, err)
				cancel()
			}
		}()
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	m.logger.Info("all components started",
		zap.Int("count", len(m.components)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		m.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		m.logger.Error("component error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		m.logger.Info("context cancelled, shutting down")
	case <-allDone:
		// A failed component also counts as finished; surface its error.
		select {
		case runErr = <-errCh:
			m.logger.Error("component error, shutting down", zap.Error(runErr))
		default:
			m.logger.Info("all components finished")
		}
	}

	m.shutdown()

	m.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (m *Manager) shutdown() {
	shutdownStart := time.Now()
	for i := len(m.components) - 1; i >= 0; i-- {
		nc := m.components[i]
		compStart := time.Now()
		m.logger.Info("stopping component", zap.String("component", nc.name))
		nc.component.Stop()
		m.logger.Info("component stopped",
			zap.String("component", nc.name),
			zap.Duration("elapsed", time.Since(compStart)),
		)
	}
	m.logger.Info("all components stopped",
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}
