// Package web provides HTTP request and response types for the container API.
package web

import "github.com/reporunner/containerflow/pkg/models"

// CreateDefinitionRequest represents the request body for storing a container
// definition.
type CreateDefinitionRequest struct {
	Container   *models.ContainerConfig `json:"container"   validate:"required"`
	Children    []*models.ChildSpec     `json:"children"    validate:"required,min=1,dive,required"`
	Name        string                  `json:"name"        validate:"required,min=3"`
	Description string                  `json:"description"`
	Variables   map[string]any          `json:"variables"`
}

// RunContainerRequest represents the request body for starting a container
// run. The input payload is handed to the container's children unchanged.
type RunContainerRequest struct {
	Input any `json:"input"`
}

// ChildTypeResponse describes one registered child type and its config
// schema.
type ChildTypeResponse struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema"`
}
