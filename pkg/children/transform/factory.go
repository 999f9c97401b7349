package transform

import (
	"context"

	"github.com/reporunner/containerflow/pkg/protocol"
)

// Factory creates transformation children.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() protocol.ChildFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Child, error) {
	return NewChild(id, config)
}

func (f *Factory) ID() string {
	return "transform"
}

func (f *Factory) Name() string {
	return "Transform"
}

func (f *Factory) Description() string {
	return "Transforms the execution input using Go templates with access to input and variables"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"description": "Go template expression applied to the execution context",
				"examples": []string{
					`{"id": "{{.input.id}}", "region": "{{.vars.region}}"}`,
					`{{.input.total}}`,
				},
			},
		},
		"required": []string{"expression"},
	}
}
