package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/identity"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

// RegisterWalletRoutes wires the wallet view and the trader profile endpoint.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, idRepo identity.Repository) {
	r.Get("/wallet", h.Me)
	r.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := idRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":       user.ID,
			"email":         user.Email,
			"token_version": user.TokenVersion,
			"created_at":    user.CreatedAt,
			"last_login":    user.LastLogin,
		})
	})
}
