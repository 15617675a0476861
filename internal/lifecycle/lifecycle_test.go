package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/farkle/internal/lifecycle"
)

type fakeService struct {
	started atomic.Bool
	stopped atomic.Bool
	// run, when set, replaces blocking until ctx is done.
	run func(ctx context.Context) error
	// order records the stop sequence across services.
	order *stopOrder
	name  string
}

type stopOrder struct {
	mu    sync.Mutex
	names []string
}

func (o *stopOrder) add(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = append(o.names, name)
}

func (f *fakeService) Start(ctx context.Context) error {
	f.started.Store(true)
	if f.run != nil {
		return f.run(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) Stop() {
	f.stopped.Store(true)
	if f.order != nil {
		f.order.add(f.name)
	}
}

func runAsync(lc *lifecycle.Lifecycle, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
		return nil
	}
}

func TestRun_StopsEverythingOnCancel(t *testing.T) {
	lc := lifecycle.New(zaptest.NewLogger(t))
	order := &stopOrder{}
	a := &fakeService{name: "a", order: order}
	b := &fakeService{name: "b", order: order}
	lc.Add("a", a)
	lc.Add("b", b)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)
	require.Eventually(t, func() bool { return a.started.Load() && b.started.Load() },
		2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, waitDone(t, done))
	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
	assert.Equal(t, []string{"b", "a"}, order.names)
}

func TestRun_EndsWhenAServiceFinishes(t *testing.T) {
	lc := lifecycle.New(zaptest.NewLogger(t))
	table := &fakeService{run: func(context.Context) error { return nil }}
	monitor := &fakeService{}
	lc.Add("monitor", monitor)
	lc.Add("table", table)

	assert.NoError(t, waitDone(t, runAsync(lc, context.Background())))
	assert.True(t, monitor.started.Load())
	assert.True(t, monitor.stopped.Load())
	assert.True(t, table.stopped.Load())
}

func TestRun_ReturnsServiceError(t *testing.T) {
	boom := errors.New("boom")
	lc := lifecycle.New(zaptest.NewLogger(t))
	lc.Add("ok", &fakeService{})
	lc.Add("bad", &fakeService{run: func(context.Context) error { return boom }})

	err := waitDone(t, runAsync(lc, context.Background()))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service bad")
}

func TestRun_NoServices(t *testing.T) {
	lc := lifecycle.New(zaptest.NewLogger(t))
	assert.NoError(t, lc.Run(context.Background()))
}

func TestFuncService(t *testing.T) {
	var stopped bool
	svc := &lifecycle.FuncService{
		StartFn: func(context.Context) error { return nil },
		StopFn:  func() { stopped = true },
	}
	lc := lifecycle.New(zaptest.NewLogger(t))
	lc.Add("fn", svc)
	assert.NoError(t, lc.Run(context.Background()))
	assert.True(t, stopped)

	assert.NotPanics(t, func() { (&lifecycle.FuncService{}).Stop() })
}

func TestNew_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { lifecycle.New(nil) })
}
