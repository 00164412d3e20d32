// ABOUTME: Tests for the operation lifecycle manager.
// ABOUTME: Covers toggle token races, polling outcomes, and cache invalidation.

package ops

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pixeldeck/pixeldeck/internal/cache"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// instantClock fires immediately so polling loops run without waiting.
type instantClock struct{}

func (instantClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

// stuckClock never fires; used to test context cancellation mid-poll.
type stuckClock struct{}

func (stuckClock) After(d time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

// fakeBackend scripts operation statuses and records calls.
type fakeBackend struct {
	mu sync.Mutex

	state       map[string]bool // server-side enabled state
	toggleErr   error
	installErr  error
	uninstallOp string
	opStatuses  []core.Operation
	opErrs      []error
	opCalls     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{state: make(map[string]bool)}
}

func (b *fakeBackend) Toggle(ctx context.Context, pluginID string, enabled bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.toggleErr != nil {
		return b.toggleErr
	}
	b.state[pluginID] = enabled
	return nil
}

func (b *fakeBackend) Install(ctx context.Context, pluginID string) error { return b.installErr }
func (b *fakeBackend) Update(ctx context.Context, pluginID string) error  { return b.installErr }
func (b *fakeBackend) Uninstall(ctx context.Context, pluginID string) (string, error) {
	return b.uninstallOp, b.installErr
}

func (b *fakeBackend) Operation(ctx context.Context, id string) (*core.Operation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.opCalls
	b.opCalls++
	if i < len(b.opErrs) && b.opErrs[i] != nil {
		return nil, b.opErrs[i]
	}
	if i >= len(b.opStatuses) {
		i = len(b.opStatuses) - 1
	}
	op := b.opStatuses[i]
	op.ID = id
	return &op, nil
}

func (b *fakeBackend) listing(ids ...string) cache.Fetcher {
	return func(ctx context.Context) ([]core.PluginRecord, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := make([]core.PluginRecord, 0, len(ids))
		for _, id := range ids {
			out = append(out, core.PluginRecord{ID: id, Name: id, Enabled: b.state[id]})
		}
		return out, nil
	}
}

func newTestManager(b Backend, c *cache.Installed) *Manager {
	m := NewManager(b, c, time.Millisecond, 5)
	m.clock = instantClock{}
	return m
}

func TestToggleOptimisticAndConfirmed(t *testing.T) {
	b := newFakeBackend()
	c := cache.New(b.listing("news"), time.Minute)
	m := newTestManager(b, c)

	c.Get(context.Background())

	if err := m.Toggle(context.Background(), "news", true); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	records, _ := c.Get(context.Background())
	if !records[0].Enabled {
		t.Error("plugin not enabled after toggle")
	}
}

func TestToggleRollbackOnFailure(t *testing.T) {
	b := newFakeBackend()
	b.toggleErr = fmt.Errorf("backend down")
	c := cache.New(b.listing("news"), time.Minute)
	m := newTestManager(b, c)

	c.Get(context.Background())

	if err := m.Toggle(context.Background(), "news", true); err == nil {
		t.Fatal("expected toggle error")
	}

	// The optimistic flip was rolled back in the cached copy.
	records, _ := c.Get(context.Background())
	if records[0].Enabled {
		t.Error("optimistic enable not rolled back")
	}
}

// blockingBackend holds each toggle response until the test releases it,
// while applying server state in request order.
type blockingBackend struct {
	*fakeBackend
	entered chan bool
	release map[bool]chan struct{}
}

func (b *blockingBackend) Toggle(ctx context.Context, pluginID string, enabled bool) error {
	// The server processes requests in arrival order; only the response
	// is delayed.
	b.mu.Lock()
	b.state[pluginID] = enabled
	b.mu.Unlock()

	b.entered <- enabled
	<-b.release[enabled]
	return nil
}

func TestToggleRaceLastRequestWins(t *testing.T) {
	fb := newFakeBackend()
	b := &blockingBackend{
		fakeBackend: fb,
		entered:     make(chan bool, 2),
		release: map[bool]chan struct{}{
			true:  make(chan struct{}),
			false: make(chan struct{}),
		},
	}
	c := cache.New(fb.listing("news"), time.Minute)
	m := newTestManager(b, c)

	c.Get(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := m.Toggle(context.Background(), "news", true); err != nil {
			t.Errorf("toggle(true) failed: %v", err)
		}
	}()
	<-b.entered // toggle(true) issued first

	go func() {
		defer wg.Done()
		if err := m.Toggle(context.Background(), "news", false); err != nil {
			t.Errorf("toggle(false) failed: %v", err)
		}
	}()
	<-b.entered

	// Responses arrive out of order: the second request answers first.
	close(b.release[false])
	close(b.release[true])
	wg.Wait()

	records, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if records[0].Enabled {
		t.Error("enabled = true; last request must win, not last response")
	}
}

func TestInstallInvalidatesCache(t *testing.T) {
	b := newFakeBackend()
	var fetches int
	c := cache.New(func(ctx context.Context) ([]core.PluginRecord, error) {
		fetches++
		return nil, nil
	}, time.Minute)
	m := newTestManager(b, c)

	c.Get(context.Background())
	if err := m.Install(context.Background(), "clock"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	c.Get(context.Background())

	if fetches != 2 {
		t.Errorf("fetches = %d, want 2 (install must invalidate)", fetches)
	}
}

func TestUninstallImmediateSuccess(t *testing.T) {
	b := newFakeBackend()
	c := cache.New(b.listing(), time.Minute)
	m := newTestManager(b, c)

	if err := m.Uninstall(context.Background(), "news"); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if b.opCalls != 0 {
		t.Errorf("opCalls = %d, want 0 for immediate uninstall", b.opCalls)
	}
}

func TestUninstallPollsToCompletion(t *testing.T) {
	b := newFakeBackend()
	b.uninstallOp = "op-1"
	b.opStatuses = []core.Operation{
		{Status: core.OpPending},
		{Status: core.OpInProgress},
		{Status: core.OpCompleted},
	}
	c := cache.New(b.listing(), time.Minute)
	m := newTestManager(b, c)

	if err := m.Uninstall(context.Background(), "news"); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if b.opCalls != 3 {
		t.Errorf("opCalls = %d, want 3", b.opCalls)
	}
}

func TestUninstallSurfacesOperationError(t *testing.T) {
	b := newFakeBackend()
	b.uninstallOp = "op-1"
	b.opStatuses = []core.Operation{
		{Status: core.OpPending},
		{Status: core.OpFailed, Error: "E"},
	}
	c := cache.New(b.listing(), time.Minute)
	m := newTestManager(b, c)

	err := m.Uninstall(context.Background(), "news")
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want OperationError", err)
	}
	if opErr.Message != "E" {
		t.Errorf("message = %q, want E", opErr.Message)
	}
}

func TestUninstallTimeoutIsDistinct(t *testing.T) {
	b := newFakeBackend()
	b.uninstallOp = "op-1"
	b.opStatuses = []core.Operation{{Status: core.OpPending}}
	c := cache.New(b.listing(), time.Minute)
	m := newTestManager(b, c)

	err := m.Uninstall(context.Background(), "news")
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		t.Error("timeout must not be an OperationError")
	}
	if timeout.Attempts != 5 {
		t.Errorf("attempts = %d, want 5", timeout.Attempts)
	}
}

func TestPollSkipsTransientErrors(t *testing.T) {
	b := newFakeBackend()
	b.uninstallOp = "op-1"
	b.opErrs = []error{fmt.Errorf("blip"), nil}
	b.opStatuses = []core.Operation{
		{Status: core.OpPending},
		{Status: core.OpCompleted},
	}
	c := cache.New(b.listing(), time.Minute)
	m := newTestManager(b, c)

	if err := m.Uninstall(context.Background(), "news"); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
}

func TestPollStopsOnContextCancel(t *testing.T) {
	b := newFakeBackend()
	b.uninstallOp = "op-1"
	b.opStatuses = []core.Operation{{Status: core.OpPending}}
	c := cache.New(b.listing(), time.Minute)
	m := NewManager(b, c, time.Second, 5)
	m.clock = stuckClock{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Uninstall(ctx, "news") }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("poll did not stop on cancel")
	}
}
