package handlers

import (
	"smarterd/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AttributeHandler handles HTTP requests for attributes.
type AttributeHandler struct {
	service *services.AttributeService
}

// NewAttributeHandler creates a new AttributeHandler.
func NewAttributeHandler(service *services.AttributeService) *AttributeHandler {
	return &AttributeHandler{
		service: service,
	}
}

// RegisterRoutes registers the attribute routes with the Fiber app.
func (h *AttributeHandler) RegisterRoutes(router fiber.Router) {
	attributeRoutes := router.Group("/attributes")
	attributeRoutes.Post("/", h.HandleCreateAttribute)
	attributeRoutes.Get("/:slug", h.HandleGetAttribute)
	attributeRoutes.Patch("/:slug", h.HandleUpdateAttribute)
	attributeRoutes.Delete("/:slug", h.HandleDeleteAttribute)
}

// HandleCreateAttribute creates an attribute. Without a position it is
// appended to its entity.
func (h *AttributeHandler) HandleCreateAttribute(c *fiber.Ctx) error {
	var input services.AttributeInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	attribute, err := h.service.CreateAttribute(c.UserContext(), input)
	if err != nil {
		return respondError(c, "Could not create attribute", err)
	}
	return c.Status(fiber.StatusCreated).JSON(attribute)
}

// HandleGetAttribute retrieves an attribute.
func (h *AttributeHandler) HandleGetAttribute(c *fiber.Ctx) error {
	attribute, err := h.service.GetAttribute(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "Could not retrieve attribute", err)
	}
	return c.JSON(attribute)
}

// HandleUpdateAttribute renames and/or moves an attribute.
func (h *AttributeHandler) HandleUpdateAttribute(c *fiber.Ctx) error {
	var patch services.AttributePatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, err)
	}

	attribute, err := h.service.UpdateAttribute(c.UserContext(), c.Params("slug"), patch)
	if err != nil {
		return respondError(c, "Could not update attribute", err)
	}
	return c.JSON(attribute)
}

// HandleDeleteAttribute deletes an attribute and renumbers its siblings.
func (h *AttributeHandler) HandleDeleteAttribute(c *fiber.Ctx) error {
	if err := h.service.DeleteAttribute(c.UserContext(), c.Params("slug")); err != nil {
		return respondError(c, "Could not delete attribute", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
