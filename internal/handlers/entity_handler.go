package handlers

import (
	"smarterd/internal/services"

	"github.com/gofiber/fiber/v2"
)

// EntityHandler handles HTTP requests for entities.
type EntityHandler struct {
	service    *services.EntityService
	attributes *services.AttributeService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(service *services.EntityService, attributes *services.AttributeService) *EntityHandler {
	return &EntityHandler{
		service:    service,
		attributes: attributes,
	}
}

// RegisterRoutes registers the entity routes with the Fiber app.
func (h *EntityHandler) RegisterRoutes(router fiber.Router) {
	entityRoutes := router.Group("/entities")
	entityRoutes.Post("/", h.HandleCreateEntity)
	entityRoutes.Get("/:slug", h.HandleGetEntity)
	entityRoutes.Patch("/:slug", h.HandleUpdateEntity)
	entityRoutes.Delete("/:slug", h.HandleDeleteEntity)
	entityRoutes.Get("/:slug/attributes", h.HandleListAttributes)
}

// HandleCreateEntity creates an entity in the referenced project.
func (h *EntityHandler) HandleCreateEntity(c *fiber.Ctx) error {
	var input services.EntityInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	entity, err := h.service.CreateEntity(c.UserContext(), input)
	if err != nil {
		return respondError(c, "Could not create entity", err)
	}
	return c.Status(fiber.StatusCreated).JSON(entity)
}

// HandleGetEntity retrieves an entity with its attributes.
func (h *EntityHandler) HandleGetEntity(c *fiber.Ctx) error {
	entity, err := h.service.GetEntity(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "Could not retrieve entity", err)
	}
	return c.JSON(entity)
}

// HandleUpdateEntity renames an entity.
func (h *EntityHandler) HandleUpdateEntity(c *fiber.Ctx) error {
	var patch services.EntityPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, err)
	}

	entity, err := h.service.UpdateEntity(c.UserContext(), c.Params("slug"), patch)
	if err != nil {
		return respondError(c, "Could not update entity", err)
	}
	return c.JSON(entity)
}

// HandleDeleteEntity deletes an entity and its attributes.
func (h *EntityHandler) HandleDeleteEntity(c *fiber.Ctx) error {
	if err := h.service.DeleteEntity(c.UserContext(), c.Params("slug")); err != nil {
		return respondError(c, "Could not delete entity", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListAttributes lists the attributes of an entity by position.
func (h *EntityHandler) HandleListAttributes(c *fiber.Ctx) error {
	attributes, err := h.attributes.ListAttributes(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "Could not retrieve attributes", err)
	}
	return c.JSON(attributes)
}
