package middleware

import (
	"context"
	"strings"

	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ActorKey is the fiber.Locals key holding the authenticated policy.Actor.
const ActorKey = "actor"

// Authenticator resolves a bearer token to the actor it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (policy.Actor, error)
}

// RequireAuth validates the bearer token and stores the actor in the request locals.
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.Unauthorized("missing authorization token")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return apperror.Unauthorized("invalid authorization format, use: Bearer <token>")
		}

		actor, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(ActorKey, actor)
		c.Locals("user_id", actor.ID)
		c.Locals("user_email", actor.Email)
		c.Locals("user_name", actor.Name)
		return c.Next()
	}
}

// RequireOperation rejects the request early when the actor's role may not perform op.
func RequireOperation(op policy.Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := policy.Authorize(ActorFrom(c), op); err != nil {
			return err
		}
		return c.Next()
	}
}

// ActorFrom returns the actor set by RequireAuth, or the zero Actor.
func ActorFrom(c *fiber.Ctx) policy.Actor {
	actor, _ := c.Locals(ActorKey).(policy.Actor)
	return actor
}
