// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"log/slog"

	"github.com/reporunner/containerflow/pkg/children/httprequest"
	logchild "github.com/reporunner/containerflow/pkg/children/log"
	"github.com/reporunner/containerflow/pkg/children/transform"
	"github.com/reporunner/containerflow/pkg/registry"
)

// NewRegistry creates a registry with the native children registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterChild(logchild.NewFactory())
	reg.RegisterChild(transform.NewFactory())
	reg.RegisterChild(httprequest.NewFactory())

	return reg
}
