package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/settlement"
)

// RegisterOfferRoutes wires offer lookup, cancellation and settlement.
func RegisterOfferRoutes(r fiber.Router, h *offer.Handler, settle *settlement.Handler) {
	r.Get("/offers/:id", h.Get)
	r.Delete("/offers/:id", h.Cancel)
	r.Post("/offers/:id/accept", settle.Accept)
}
