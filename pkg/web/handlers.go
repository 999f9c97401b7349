// Package web provides HTTP handlers and REST API endpoints for container
// definition management and container runs.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/reporunner/containerflow/pkg/models"
	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/registry"
	"github.com/reporunner/containerflow/pkg/services"
)

type APIHandlers struct {
	definitionService *services.Definition
	runner            *services.Runner
	validator         *validator.Validate
	registry          *registry.Registry
}

func NewAPIHandlers(
	definitionService *services.Definition,
	runner *services.Runner,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		definitionService: definitionService,
		runner:            runner,
		validator:         validator,
		registry:          registry,
	}
}

func (h *APIHandlers) GetDefinitions(c fiber.Ctx) error {
	definitions, err := h.definitionService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"definitions": definitions,
		"total_count": len(definitions),
	})
}

func (h *APIHandlers) GetDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Container ID is required")
	}

	definition, err := h.definitionService.Get(c.Context(), id)
	if err != nil {
		if persistence.IsNotFound(err) {
			return notFound(c, "Container definition not found")
		}

		return internalError(c, err)
	}

	return c.JSON(definition)
}

func (h *APIHandlers) CreateDefinition(c fiber.Ctx) error {
	var req CreateDefinitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	definition := &models.ContainerDefinition{
		Container:   req.Container,
		Children:    req.Children,
		Name:        req.Name,
		Description: req.Description,
		Variables:   req.Variables,
	}

	if err := h.definitionService.Save(c.Context(), definition); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(definition)
}

func (h *APIHandlers) DeleteDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Container ID is required")
	}

	if err := h.definitionService.Delete(c.Context(), id); err != nil {
		if persistence.IsNotFound(err) {
			return notFound(c, "Container definition not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunContainer executes a stored definition synchronously and returns the
// execution result. A concurrent run of the same container is rejected with
// a conflict.
func (h *APIHandlers) RunContainer(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Container ID is required")
	}

	var req RunContainerRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.runner.Run(c.Context(), id, req.Input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetContainerState(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Container ID is required")
	}

	state, ok := h.runner.State(id)
	if !ok {
		return notFound(c, "No execution state for container")
	}

	return c.JSON(state)
}

func (h *APIHandlers) StopContainer(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Container ID is required")
	}

	if err := h.runner.Stop(id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) ClearContainerState(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Container ID is required")
	}

	if err := h.runner.Clear(id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Container ID is required")
	}

	records, err := h.definitionService.Executions(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  records,
		"total_count": len(records),
	})
}

// GetChildTypes lists the registered child types and their config schemas.
func (h *APIHandlers) GetChildTypes(c fiber.Ctx) error {
	types := h.registry.AvailableChildren()

	response := make([]ChildTypeResponse, 0, len(types))

	for _, childType := range types {
		schema, _ := h.registry.Schema(childType)
		response = append(response, ChildTypeResponse{
			Type:   childType,
			Schema: schema,
		})
	}

	return c.JSON(fiber.Map{"children": response})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.definitionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Containerflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Containerflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
