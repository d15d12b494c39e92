package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kbus/kbus/pkg/tickets"
	"github.com/liip/sheriff"
)

type bookingRequest struct {
	OTP         string `json:"otp"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func TicketsRouter(router fiber.Router, booker *tickets.Booker, store tickets.Store) {
	router.Post("/", func(c *fiber.Ctx) error {
		return bookTicket(c, booker)
	})
	router.Get("/:identifier", func(c *fiber.Ctx) error {
		return getTicket(c, store)
	})
}

func bookTicket(c *fiber.Ctx, booker *tickets.Booker) error {
	var request bookingRequest
	if err := c.BodyParser(&request); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Body must be a booking request",
		})
	}

	ticket, err := booker.Book(c.Context(), callerID(c), request.OTP, request.Source, request.Destination)
	if err != nil {
		return renderError(c, err)
	}

	c.SendStatus(fiber.StatusCreated)
	return renderGroups(c, ticket, "basic", "detailed")
}

func getTicket(c *fiber.Ctx, store tickets.Store) error {
	ticket, err := store.ByID(c.Context(), c.Params("identifier"))
	if err != nil {
		return renderError(c, err)
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: responseGroups(c),
	}, ticket)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to reduce document",
		})
	}

	return c.JSON(fiber.Map{
		"ticket":  reduced,
		"expired": ticket.Expired(time.Now()),
	})
}
