package protocol

import (
	"context"

	"github.com/reporunner/containerflow/pkg/models"
)

// Child is an executable leaf created from a ChildSpec by the registry.
type Child interface {
	// ID returns the child instance id
	ID() string

	// Type returns the child type
	Type() string

	// Execute runs the child against the execution context and returns its
	// output payload
	Execute(ctx context.Context, execCtx models.ExecutionContext) (any, error)
}

// ChildFactory creates child instances and provides metadata about the
// child type.
type ChildFactory interface {
	// Create creates a new child instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Child, error)

	// ID returns the unique identifier for this child type
	ID() string

	// Name returns the human-readable name for this child type
	Name() string

	// Description returns a description of what this child does
	Description() string

	// Schema returns the JSON schema for configuring this child
	Schema() map[string]any
}
