package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
)

// RegisterAssetRoutes wires asset registry endpoints. Offers nest under the
// asset they reference for creation and listing.
func RegisterAssetRoutes(r fiber.Router, h *asset.Handler, offers *offer.Handler) {
	r.Post("/assets", h.Create)
	r.Get("/assets", h.List)
	r.Get("/assets/:id", h.Get)
	r.Post("/assets/:id/offers", offers.Create)
	r.Get("/assets/:id/offers", offers.ListByAsset)
}
