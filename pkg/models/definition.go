package models

import (
	"errors"
	"fmt"
	"time"
)

// Static definition errors.
var (
	ErrUnknownChildReference = errors.New("container references a child with no spec")
	ErrDuplicateChildID      = errors.New("duplicate child id in definition")
)

// ChildSpec describes one executable child referenced by a container. The
// spec is resolved to a concrete child implementation through the registry.
type ChildSpec struct {
	ID     string         `json:"id"   validate:"required"`
	Type   string         `json:"type" validate:"required"`
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// ContainerDefinition is the persisted document combining a container
// configuration with the specs of the children it references. This is what
// the API and CLI store and run.
type ContainerDefinition struct {
	Container   *ContainerConfig `json:"container" validate:"required"`
	Children    []*ChildSpec     `json:"children"  validate:"required,min=1,dive,required"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Schedule    string           `json:"schedule,omitempty"`
	Variables   map[string]any   `json:"variables,omitempty"`
	CreatedAt   time.Time        `json:"created_at,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at,omitempty"`
}

// ID returns the definition's identity, which is the container id.
func (d *ContainerDefinition) ID() string {
	if d.Container == nil {
		return ""
	}

	return d.Container.ID
}

// ChildByID returns the spec for the given child id.
func (d *ContainerDefinition) ChildByID(childID string) (*ChildSpec, bool) {
	for _, child := range d.Children {
		if child.ID == childID {
			return child, true
		}
	}

	return nil, false
}

// Validate checks the definition's structure, the embedded container config,
// and that every declared child id resolves to exactly one spec.
func (d *ContainerDefinition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid container definition: %w", err)
	}

	if err := d.Container.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(d.Children))

	for _, child := range d.Children {
		if seen[child.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateChildID, child.ID)
		}

		seen[child.ID] = true
	}

	for _, childID := range d.Container.Children {
		if !seen[childID] {
			return fmt.Errorf("%w: %s", ErrUnknownChildReference, childID)
		}
	}

	return nil
}
