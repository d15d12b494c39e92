package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/tickets"
)

func AccountsRouter(router fiber.Router, store tickets.Store) {
	router.Get("/:identifier/tickets", func(c *fiber.Ctx) error {
		return getAccountTickets(c, store)
	})
}

func getAccountTickets(c *fiber.Ctx, store tickets.Store) error {
	userID := c.Params("identifier")

	// Users only ever see their own tickets
	if caller := callerID(c); caller != "" && caller != userID {
		c.SendStatus(fiber.StatusForbidden)
		return c.JSON(fiber.Map{
			"error": "Cannot list another account's tickets",
		})
	}

	userTickets, err := store.ForUser(c.Context(), userID)
	if err != nil {
		return renderError(c, err)
	}

	return renderGroups(c, userTickets, responseGroups(c)...)
}
