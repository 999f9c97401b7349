package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/reporunner/containerflow/pkg/models"
)

// DispatchCall records one dispatch observed by the stub dispatcher.
type DispatchCall struct {
	ChildID string
	Context models.ExecutionContext
}

// StubDispatcher is a thread-safe scripted ChildDispatcher for tests. Each
// child id may have a handler; children without one echo the execution
// context's input.
type StubDispatcher struct {
	mu       sync.Mutex
	handlers map[string]func(ctx context.Context, execCtx models.ExecutionContext) (any, error)
	delay    time.Duration
	calls    []DispatchCall
}

// NewStubDispatcher creates an empty stub dispatcher.
func NewStubDispatcher() *StubDispatcher {
	return &StubDispatcher{
		handlers: make(map[string]func(ctx context.Context, execCtx models.ExecutionContext) (any, error)),
	}
}

// On scripts the handler for a child id.
func (d *StubDispatcher) On(childID string, handler func(ctx context.Context, execCtx models.ExecutionContext) (any, error)) *StubDispatcher {
	d.mu.Lock()
	d.handlers[childID] = handler
	d.mu.Unlock()

	return d
}

// Returning scripts a fixed output for a child id.
func (d *StubDispatcher) Returning(childID string, output any) *StubDispatcher {
	return d.On(childID, func(_ context.Context, _ models.ExecutionContext) (any, error) {
		return output, nil
	})
}

// Failing scripts a fixed error for a child id.
func (d *StubDispatcher) Failing(childID string, err error) *StubDispatcher {
	return d.On(childID, func(_ context.Context, _ models.ExecutionContext) (any, error) {
		return nil, err
	})
}

// WithDelay makes every dispatch sleep before running its handler.
func (d *StubDispatcher) WithDelay(delay time.Duration) *StubDispatcher {
	d.mu.Lock()
	d.delay = delay
	d.mu.Unlock()

	return d
}

// Dispatch implements protocol.ChildDispatcher.
func (d *StubDispatcher) Dispatch(ctx context.Context, childID string, execCtx models.ExecutionContext) (any, error) {
	d.mu.Lock()
	d.calls = append(d.calls, DispatchCall{ChildID: childID, Context: execCtx})
	handler := d.handlers[childID]
	delay := d.delay
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if handler == nil {
		return execCtx.Input, nil
	}

	return handler(ctx, execCtx)
}

// Calls returns a copy of every recorded dispatch in order.
func (d *StubDispatcher) Calls() []DispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()

	calls := make([]DispatchCall, len(d.calls))
	copy(calls, d.calls)

	return calls
}

// CallCount returns the number of dispatches for a child id.
func (d *StubDispatcher) CallCount(childID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0

	for _, call := range d.calls {
		if call.ChildID == childID {
			count++
		}
	}

	return count
}

// TotalCalls returns the total number of dispatches.
func (d *StubDispatcher) TotalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.calls)
}
