package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/reporunner/containerflow/pkg/cmd"
	"github.com/reporunner/containerflow/pkg/executor"
	"github.com/reporunner/containerflow/pkg/log"
	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/services"
)

// ErrMissingTarget indicates neither a definition file nor a stored id was
// given.
var ErrMissingTarget = errors.New("either --file or --id is required")

// NewRunCommand builds the one-shot run command: execute a definition from a
// JSON file or from the persistence store and print the result.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a container definition once and print the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to a container definition JSON file",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "ID of a stored container definition",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:  "input",
				Usage: "JSON input payload handed to the container",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("run")

	if command.String("file") == "" && command.String("id") == "" {
		return ErrMissingTarget
	}

	var input any
	if raw := command.String("input"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			return fmt.Errorf("invalid input payload: %w", err)
		}
	}

	persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persist.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	runner := services.NewRunner(executor.NewExecutor(logger), cmd.NewRegistry(logger), persist, logger)

	var result *models.ExecutionResult

	if file := command.String("file"); file != "" {
		definition, err := loadDefinition(file)
		if err != nil {
			return err
		}

		result, err = runner.RunDefinition(ctx, definition, input)
		if err != nil {
			return err
		}
	} else {
		result, err = runner.Run(ctx, command.String("id"), input)
		if err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("container run failed with %d error(s)", len(result.Errors))
	}

	return nil
}

func loadDefinition(path string) (*models.ContainerDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var definition models.ContainerDefinition
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse definition file: %w", err)
	}

	return &definition, nil
}
