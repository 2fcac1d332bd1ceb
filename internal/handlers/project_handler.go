package handlers

import (
	"smarterd/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProjectHandler handles HTTP requests for projects.
type ProjectHandler struct {
	service  *services.ProjectService
	entities *services.EntityService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(service *services.ProjectService, entities *services.EntityService) *ProjectHandler {
	return &ProjectHandler{
		service:  service,
		entities: entities,
	}
}

// RegisterRoutes registers the project routes with the Fiber app.
func (h *ProjectHandler) RegisterRoutes(router fiber.Router) {
	projectRoutes := router.Group("/projects")
	projectRoutes.Get("/", h.HandleListProjects)
	projectRoutes.Post("/", h.HandleCreateProject)
	projectRoutes.Get("/:slug", h.HandleGetProject)
	projectRoutes.Patch("/:slug", h.HandleUpdateProject)
	projectRoutes.Delete("/:slug", h.HandleDeleteProject)
	projectRoutes.Get("/:slug/entities", h.HandleListEntities)
}

// HandleListProjects lists the projects visible to the caller, ten per page.
func (h *ProjectHandler) HandleListProjects(c *fiber.Ctx) error {
	page, err := h.service.ListProjects(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return respondError(c, "Could not retrieve projects", err)
	}
	return c.JSON(page)
}

// HandleCreateProject creates a project owned by the caller.
func (h *ProjectHandler) HandleCreateProject(c *fiber.Ctx) error {
	var input services.ProjectInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	project, err := h.service.CreateProject(c.UserContext(), input)
	if err != nil {
		return respondError(c, "Could not create project", err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// HandleGetProject retrieves a project with its entities.
func (h *ProjectHandler) HandleGetProject(c *fiber.Ctx) error {
	project, err := h.service.GetProject(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "Could not retrieve project", err)
	}
	return c.JSON(project)
}

// HandleUpdateProject renames a project.
func (h *ProjectHandler) HandleUpdateProject(c *fiber.Ctx) error {
	var patch services.ProjectPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, err)
	}

	project, err := h.service.UpdateProject(c.UserContext(), c.Params("slug"), patch)
	if err != nil {
		return respondError(c, "Could not update project", err)
	}
	return c.JSON(project)
}

// HandleDeleteProject deletes a project and everything it contains.
func (h *ProjectHandler) HandleDeleteProject(c *fiber.Ctx) error {
	if err := h.service.DeleteProject(c.UserContext(), c.Params("slug")); err != nil {
		return respondError(c, "Could not delete project", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListEntities lists the entities of a project.
func (h *ProjectHandler) HandleListEntities(c *fiber.Ctx) error {
	entities, err := h.entities.ListEntities(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "Could not retrieve entities", err)
	}
	return c.JSON(entities)
}
