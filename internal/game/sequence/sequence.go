// Package sequence runs a chain of delayed steps, one at a time, with
// cancellation. It paces the presentation of computer turns.
package sequence

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrHalt may be returned by a step to end the sequence without error.
	ErrHalt = errors.New("sequence halted")
	// ErrCancelled is the result of a sequence stopped by Cancel.
	ErrCancelled = errors.New("sequence cancelled")
)

// StepFunc is one step. ctx is cancelled when the sequence is cancelled;
// steps that take a lock shared with the canceller must re-check ctx.Err()
// after acquiring it.
type StepFunc func(ctx context.Context) error

type step struct {
	name  string
	delay time.Duration
	fn    StepFunc
}

// Sequence executes queued steps in order. Each step is scheduled with
// time.AfterFunc once the previous one returns. It is safe for concurrent use.
type Sequence struct {
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	queue   []step
	timer   *time.Timer
	started bool
	closed  bool
	err     error
	done    chan struct{}
}

// New creates an idle sequence.
//
// Precondition: logger must be non-nil.
func New(logger *zap.Logger) *Sequence {
	if logger == nil {
		panic("sequence.New: logger must not be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sequence{logger: logger, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// Then appends a step that runs delay after the previous step finishes.
// Steps may call Then on their own sequence to extend it. Calls after the
// sequence has finished are ignored.
func (s *Sequence) Then(name string, delay time.Duration, fn StepFunc) *Sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s
	}
	s.queue = append(s.queue, step{name: name, delay: delay, fn: fn})
	return s
}

// Start schedules the first step. Calling Start more than once has no effect.
//
// Postcondition: a sequence started with no steps finishes immediately.
func (s *Sequence) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	s.scheduleLocked()
}

func (s *Sequence) scheduleLocked() {
	if len(s.queue) == 0 {
		s.finishLocked(nil)
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.timer = time.AfterFunc(next.delay, func() { s.run(next) })
}

func (s *Sequence) run(st step) {
	if s.ctx.Err() != nil {
		return
	}
	err := st.fn(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch {
	case s.ctx.Err() != nil:
		s.finishLocked(ErrCancelled)
	case err == nil:
		s.scheduleLocked()
	case errors.Is(err, ErrHalt):
		s.finishLocked(nil)
	default:
		s.logger.Warn("sequence step failed", zap.String("step", st.name), zap.Error(err))
		s.finishLocked(err)
	}
}

func (s *Sequence) finishLocked(err error) {
	s.closed = true
	s.err = err
	s.queue = nil
	close(s.done)
}

// Cancel stops the sequence. Safe to call multiple times and after the
// sequence has finished.
//
// Postcondition: no step starts after Cancel returns; a step already running
// observes a cancelled context.
func (s *Sequence) Cancel() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	if !s.closed {
		s.finishLocked(ErrCancelled)
	}
}

// Done is closed when the sequence finishes, fails or is cancelled.
func (s *Sequence) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal result: nil on completion, ErrCancelled, or the
// error of the failing step. It is nil while the sequence runs.
func (s *Sequence) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the sequence finishes or ctx is done.
func (s *Sequence) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
