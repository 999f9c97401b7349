// Package protocol defines the interfaces and contracts between the
// container executor and its external collaborators.
package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/reporunner/containerflow/pkg/models"
)

// ChildDispatcher executes a single child on behalf of a container strategy.
// Implementations must be safe for concurrent use: the parallel strategy
// calls Dispatch from multiple workers at once. Cancellation of an in-flight
// child is the dispatcher's responsibility, via the passed context.
type ChildDispatcher interface {
	Dispatch(ctx context.Context, childID string, execCtx models.ExecutionContext) (any, error)
}

// DispatchFunc adapts a function to the ChildDispatcher interface.
type DispatchFunc func(ctx context.Context, childID string, execCtx models.ExecutionContext) (any, error)

func (f DispatchFunc) Dispatch(ctx context.Context, childID string, execCtx models.ExecutionContext) (any, error) {
	return f(ctx, childID, execCtx)
}

// ChildExecutionError classifies a failed child dispatch. Child failures are
// recoverable: strategies collect them into the result's error list, and
// only policy decides whether they fail the container.
type ChildExecutionError struct {
	ChildID string
	Err     error
}

func (e *ChildExecutionError) Error() string {
	return fmt.Sprintf("child %s execution failed: %v", e.ChildID, e.Err)
}

func (e *ChildExecutionError) Unwrap() error {
	return e.Err
}

// IsChildExecutionError reports whether err wraps a child dispatch failure.
func IsChildExecutionError(err error) bool {
	var childErr *ChildExecutionError

	return errors.As(err, &childErr)
}
