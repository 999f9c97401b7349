package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Variable keys injected into derived contexts at iteration and batch
// boundaries. Children and expressions see them through Variables.
const (
	VarCurrentIteration = "currentIteration"
	VarBatchIndex       = "batchIndex"
	VarBatchSize        = "batchSize"
	VarTotalBatches     = "totalBatches"
)

// ExecutionContext carries the per-invocation data visible to child
// invocations: the opaque input payload and the global variable mapping.
type ExecutionContext struct {
	ID          string         `json:"id"`
	ContainerID string         `json:"container_id"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	Input       any            `json:"input,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

// NewExecutionContext creates a context for a fresh container invocation.
func NewExecutionContext(containerID, workflowID string, input any, variables map[string]any) ExecutionContext {
	return ExecutionContext{
		ID:          generateExecutionID(),
		ContainerID: containerID,
		WorkflowID:  workflowID,
		Input:       input,
		Variables:   variables,
	}
}

// Derive clones the context for one iteration or batch, overriding the input
// payload and injecting the given metadata into the variable mapping. The
// original context is not mutated.
func (c ExecutionContext) Derive(input any, meta map[string]any) ExecutionContext {
	derived := c
	derived.Input = input

	variables := make(map[string]any, len(c.Variables)+len(meta))
	for k, v := range c.Variables {
		variables[k] = v
	}

	for k, v := range meta {
		variables[k] = v
	}

	derived.Variables = variables

	return derived
}

// generateExecutionID generates a unique execution ID.
func generateExecutionID() string {
	return fmt.Sprintf("exec-%s", uuid.New().String()[:8])
}
