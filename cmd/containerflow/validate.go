package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/reporunner/containerflow/pkg/cmd"
	"github.com/reporunner/containerflow/pkg/log"
)

// ErrInvalidDefinitionFile indicates the definition failed validation.
var ErrInvalidDefinitionFile = errors.New("definition is invalid")

// NewValidateCommand builds the validate command: check a definition file's
// structure and every child config against its registered schema.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a container definition file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to a container definition JSON file",
				Required: true,
			},
		},
		Action: validateAction,
	}
}

func validateAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("validate")

	definition, err := loadDefinition(command.String("file"))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Validating definition %q (%s)\n", definition.Name, definition.ID())

	problems := 0

	if err := definition.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stdout, "  structure: INVALID: %v\n", err)

		problems++
	} else {
		_, _ = fmt.Fprintln(os.Stdout, "  structure: OK")
	}

	registry := cmd.NewRegistry(logger)

	for _, child := range definition.Children {
		schema, ok := registry.Schema(child.Type)
		if !ok {
			_, _ = fmt.Fprintf(os.Stdout, "  child %s: INVALID: unknown child type %q\n", child.ID, child.Type)

			problems++

			continue
		}

		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(schema),
			gojsonschema.NewGoLoader(child.Config),
		)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stdout, "  child %s: INVALID: %v\n", child.ID, err)

			problems++

			continue
		}

		if !result.Valid() {
			for _, desc := range result.Errors() {
				_, _ = fmt.Fprintf(os.Stdout, "  child %s: INVALID: %s\n", child.ID, desc)
			}

			problems++

			continue
		}

		_, _ = fmt.Fprintf(os.Stdout, "  child %s (%s): OK\n", child.ID, child.Type)
	}

	if problems > 0 {
		return fmt.Errorf("%w: %d problem(s) found", ErrInvalidDefinitionFile, problems)
	}

	_, _ = fmt.Fprintln(os.Stdout, "Definition is valid")

	return nil
}
