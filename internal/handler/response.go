package handler

import (
	"errors"
	"strconv"

	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/pkg/apperror"
	"go-pos-backoffice/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const moduleName = "handler"

// ErrorHandler renders every error returned by a route as {"error", "status"}.
// Internal failures are logged and answered with their generic message.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := classify(err)
		if appErr.Kind == apperror.KindInternal {
			logger.LogError(log, moduleName, "ErrorHandler", c.Method()+" "+c.Path(), nil, err)
		}

		body := fiber.Map{"error": appErr.Message, "status": appErr.Kind}
		if appErr.Retryable {
			body["retryable"] = true
		}
		return c.Status(appErr.HTTPStatus()).JSON(body)
	}
}

func classify(err error) *apperror.Error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusUnauthorized:
			return apperror.Unauthorized(fe.Message)
		case fe.Code == fiber.StatusForbidden:
			return apperror.Forbidden(fe.Message)
		case fe.Code == fiber.StatusNotFound:
			return apperror.NotFound(fe.Message)
		case fe.Code < fiber.StatusInternalServerError:
			return apperror.Validation(fe.Message)
		}
	}
	return apperror.From(err)
}

func actor(c *fiber.Ctx) policy.Actor {
	return middleware.ActorFrom(c)
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Params("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validationf("invalid id %q", raw)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("invalid JSON body")
	}
	return nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validationf("%s must be an integer", key)
	}
	return n, nil
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message, "data": data})
}

func done(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{"message": message, "data": data})
}
