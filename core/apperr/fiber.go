package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Respond writes the error as a tagged JSON outcome with the status mapped
// from its kind. Handlers never let errors cross the HTTP boundary raw.
func Respond(c *fiber.Ctx, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal("unexpected error", err)
	}
	return c.Status(HTTPStatus(e.Kind)).JSON(fiber.Map{
		"error": fiber.Map{
			"kind":    e.Kind,
			"code":    e.Code,
			"message": e.Message,
		},
	})
}
