// Package lifecycle runs the long-lived parts of a binary and stops them in
// reverse order on a termination signal, a failure, or when any one of them
// finishes on its own.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component.
type Service interface {
	// Start runs the service until ctx is done or its work ends. It
	// should return nil on a clean finish.
	Start(ctx context.Context) error
	// Stop releases the service's resources. It is called once, after
	// every service's context is cancelled.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
// A nil StopFn is a no-op.
type FuncService struct {
	StartFn func(ctx context.Context) error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start(ctx context.Context) error { return f.StartFn(ctx) }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// Lifecycle starts services together and stops them in reverse order.
type Lifecycle struct {
	logger   *zap.Logger
	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name    string
	service Service
}

type exit struct {
	name string
	err  error
}

// New creates a Lifecycle.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *Lifecycle {
	if logger == nil {
		panic("lifecycle.New: logger must not be nil")
	}
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Services are stopped in the reverse of
// the order they were added.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every service and blocks until SIGINT or SIGTERM arrives, ctx
// is done, or the first service returns. A service that returns an error
// other than context cancellation makes Run return that error.
//
// Postcondition: every service has been stopped and every Start has
// returned when Run returns.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()
	if len(services) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan exit, len(services))
	for _, ns := range services {
		go func() {
			l.logger.Debug("starting service", zap.String("service", ns.name))
			exits <- exit{name: ns.name, err: ns.service.Start(ctx)}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	pending := len(services)
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	case e := <-exits:
		pending--
		runErr = l.exited(e, start)
	}

	cancel()
	for ; pending > 0; pending-- {
		e := <-exits
		if err := l.exited(e, start); err != nil && runErr == nil {
			runErr = err
		}
	}
	l.shutdown(services)

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) exited(e exit, start time.Time) error {
	if e.err == nil || errors.Is(e.err, context.Canceled) {
		l.logger.Debug("service finished",
			zap.String("service", e.name),
			zap.Duration("uptime", time.Since(start)),
		)
		return nil
	}
	l.logger.Error("service failed",
		zap.String("service", e.name),
		zap.Error(e.err),
		zap.Duration("uptime", time.Since(start)),
	)
	return fmt.Errorf("service %s: %w", e.name, e.err)
}

func (l *Lifecycle) shutdown(services []namedService) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		ns.service.Stop()
		l.logger.Debug("service stopped", zap.String("service", ns.name))
	}
	l.logger.Debug("all services stopped",
		zap.Duration("shutdown_elapsed", time.Since(shutdownStart)),
	)
}
