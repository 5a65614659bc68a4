package handler

import (
	"go-pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	authService service.AuthService
}

func NewRoleHandler(authService service.AuthService) *RoleHandler {
	return &RoleHandler{authService: authService}
}

// GetRoles returns all available roles
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.authService.ListRoles(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(roles)
}
