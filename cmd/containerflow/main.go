// Package main provides the containerflow command line tool for running and
// validating container definitions.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/reporunner/containerflow/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "containerflow",
		Usage:                 "Run and validate container definitions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewValidateCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
