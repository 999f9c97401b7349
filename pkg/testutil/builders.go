// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/reporunner/containerflow/pkg/models"
)

// CreateTestContainer creates a ContainerConfig with default values that can
// be overridden.
func CreateTestContainer(overrides ...func(*models.ContainerConfig)) *models.ContainerConfig {
	config := &models.ContainerConfig{
		ID:       uuid.New().String(),
		Type:     models.ContainerTypeLoop,
		Children: []string{"child-1"},
		Loop:     &models.LoopConfig{Count: 1},
	}

	for _, override := range overrides {
		override(config)
	}

	return config
}

// WithType sets the container type and clears the default loop config when
// switching away from loop.
func WithType(containerType models.ContainerType) func(*models.ContainerConfig) {
	return func(c *models.ContainerConfig) {
		c.Type = containerType
		if containerType != models.ContainerTypeLoop {
			c.Loop = nil
		}
	}
}

// WithChildren sets the child id list.
func WithChildren(children ...string) func(*models.ContainerConfig) {
	return func(c *models.ContainerConfig) {
		c.Children = children
	}
}

// WithLoop sets the loop configuration.
func WithLoop(cfg *models.LoopConfig) func(*models.ContainerConfig) {
	return func(c *models.ContainerConfig) {
		c.Type = models.ContainerTypeLoop
		c.Loop = cfg
	}
}

// WithParallel sets the parallel configuration.
func WithParallel(cfg *models.ParallelConfig) func(*models.ContainerConfig) {
	return func(c *models.ContainerConfig) {
		c.Type = models.ContainerTypeParallel
		c.Loop = nil
		c.Parallel = cfg
	}
}

// WithConditional sets the conditional configuration.
func WithConditional(expression string) func(*models.ContainerConfig) {
	return func(c *models.ContainerConfig) {
		c.Type = models.ContainerTypeConditional
		c.Loop = nil
		c.Conditional = &models.ConditionalConfig{Expression: expression}
	}
}

// WithTryCatch sets the try-catch configuration.
func WithTryCatch(cfg *models.TryCatchConfig) func(*models.ContainerConfig) {
	return func(c *models.ContainerConfig) {
		c.Type = models.ContainerTypeTryCatch
		c.Loop = nil
		c.TryCatch = cfg
	}
}

// WithBatch sets the batch configuration.
func WithBatch(cfg *models.BatchConfig) func(*models.ContainerConfig) {
	return func(c *models.ContainerConfig) {
		c.Type = models.ContainerTypeBatch
		c.Loop = nil
		c.Batch = cfg
	}
}

// CreateTestDefinition creates a ContainerDefinition wrapping the given
// container config, generating one log child spec per child id.
func CreateTestDefinition(overrides ...func(*models.ContainerDefinition)) *models.ContainerDefinition {
	container := CreateTestContainer()

	children := make([]*models.ChildSpec, 0, len(container.Children))
	for _, childID := range container.Children {
		children = append(children, &models.ChildSpec{
			ID:     childID,
			Type:   "log",
			Name:   "Test Child",
			Config: map[string]any{"message": "test", "level": "info"},
		})
	}

	now := time.Now().UTC()

	definition := &models.ContainerDefinition{
		Container:   container,
		Children:    children,
		Name:        "Test Definition",
		Description: "definition used in tests",
		Variables:   map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(definition)
	}

	return definition
}

// WithContainer replaces the definition's container config and regenerates
// matching child specs.
func WithContainer(container *models.ContainerConfig) func(*models.ContainerDefinition) {
	return func(d *models.ContainerDefinition) {
		d.Container = container

		children := make([]*models.ChildSpec, 0, len(container.Children))
		for _, childID := range container.Children {
			children = append(children, &models.ChildSpec{
				ID:     childID,
				Type:   "log",
				Name:   "Test Child",
				Config: map[string]any{"message": "test", "level": "info"},
			})
		}

		d.Children = children
	}
}

// WithDefinitionName sets the definition name.
func WithDefinitionName(name string) func(*models.ContainerDefinition) {
	return func(d *models.ContainerDefinition) {
		d.Name = name
	}
}

// WithVariables sets the definition variables.
func WithVariables(variables map[string]any) func(*models.ContainerDefinition) {
	return func(d *models.ContainerDefinition) {
		d.Variables = variables
	}
}
