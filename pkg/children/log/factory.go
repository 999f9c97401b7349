package log

import (
	"context"

	"github.com/reporunner/containerflow/pkg/protocol"
)

// Factory creates logging children.
type Factory struct{}

// NewFactory creates a new factory instance.
func NewFactory() protocol.ChildFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Child, error) {
	return NewChild(id, config)
}

func (f *Factory) ID() string {
	return "log"
}

func (f *Factory) Name() string {
	return "Log"
}

func (f *Factory) Description() string {
	return "Logs a templated message at the configured level and passes the input through"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message template with access to the execution context",
				"examples": []string{
					"processing {{.input.id}}",
					"iteration {{.vars.currentIteration}}",
				},
			},
			"level": map[string]any{
				"type":        "string",
				"description": "Log level",
				"enum":        []string{"debug", "info", "warn", "error"},
				"default":     "info",
			},
		},
		"required": []string{"message"},
	}
}
