// Package registry maps child types to their factories and builds the
// dispatcher handed to the container executor.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/protocol"
)

type Registry struct {
	logger         *slog.Logger
	childFactories map[string]protocol.ChildFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:         log,
		childFactories: make(map[string]protocol.ChildFactory),
	}
}

func (r *Registry) RegisterChild(factory protocol.ChildFactory) {
	r.childFactories[factory.ID()] = factory
}

// CreateChild instantiates a child of the given type with its config.
func (r *Registry) CreateChild(ctx context.Context, childType, id string, config map[string]any) (protocol.Child, error) {
	factory, ok := r.childFactories[childType]
	if !ok {
		return nil, fmt.Errorf("child type '%s' not registered", childType)
	}

	return factory.Create(ctx, id, config)
}

// AvailableChildren returns the registered child types, sorted.
func (r *Registry) AvailableChildren() []string {
	types := make([]string, 0, len(r.childFactories))
	for childType := range r.childFactories {
		types = append(types, childType)
	}

	sort.Strings(types)

	return types
}

// Schema returns the config schema for a child type.
func (r *Registry) Schema(childType string) (map[string]any, bool) {
	factory, ok := r.childFactories[childType]
	if !ok {
		return nil, false
	}

	return factory.Schema(), true
}

// Dispatcher builds a ChildDispatcher for a definition: each dispatch
// resolves the child spec by id, instantiates the child and executes it.
// The returned dispatcher is safe for concurrent use; children are created
// per dispatch so instances never share mutable state across workers.
func (r *Registry) Dispatcher(definition *models.ContainerDefinition) protocol.ChildDispatcher {
	return protocol.DispatchFunc(func(ctx context.Context, childID string, execCtx models.ExecutionContext) (any, error) {
		spec, ok := definition.ChildByID(childID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownChildReference, childID)
		}

		child, err := r.CreateChild(ctx, spec.Type, spec.ID, spec.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to create child %s: %w", childID, err)
		}

		r.logger.DebugContext(ctx, "Dispatching child",
			"child_id", childID,
			"child_type", spec.Type,
			"execution_id", execCtx.ID,
		)

		return child.Execute(ctx, execCtx)
	})
}
