package handlers

import (
	"smarterd/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/:slug", h.HandleGetUser)
	userRoutes.Patch("/:slug", h.HandleUpdateUser)
}

// HandleCreateUser creates a user. Administrators only.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var input services.UserInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.service.CreateUser(c.UserContext(), input)
	if err != nil {
		return respondError(c, "Could not create user", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleGetUser retrieves a user by slug.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

// HandleUpdateUser updates the email, password or role of a user.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var patch services.UserPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.service.UpdateUser(c.UserContext(), c.Params("slug"), patch)
	if err != nil {
		return respondError(c, "Could not update user", err)
	}
	return c.JSON(user)
}
