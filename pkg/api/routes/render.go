package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/liip/sheriff"
)

// renderError maps the engine error taxonomy onto HTTP statuses. Anything
// unclassified is an internal error with the detail kept out of the response.
func renderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, fleetdf.ErrNotFound):
		c.SendStatus(fiber.StatusNotFound)
	case errors.Is(err, fleetdf.ErrInvalidRequest):
		c.SendStatus(fiber.StatusBadRequest)
	case errors.Is(err, fleetdf.ErrTripNotActive):
		c.SendStatus(fiber.StatusConflict)
	default:
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Internal error",
		})
	}

	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}

// renderGroups marshals a document down to the requested sheriff groups.
func renderGroups(c *fiber.Ctx, document interface{}, groups ...string) error {
	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, document)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to reduce document",
		})
	}

	return c.JSON(reduced)
}

func responseGroups(c *fiber.Ctx) []string {
	if c.QueryBool("detailed") {
		return []string{"basic", "detailed"}
	}

	return []string{"basic"}
}

func callerID(c *fiber.Ctx) string {
	caller, _ := c.Locals("caller_id").(string)

	return caller
}
