package wallet

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Me returns the authenticated trader's wallet and its ledger balance.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return c.SendStatus(http.StatusUnauthorized)
	}

	w, err := h.service.GetByOwner(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}

	balance, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"wallet_id":    w.ID,
		"owner_id":     w.OwnerID,
		"account_code": w.AccountCode,
		"currency":     w.Currency,
		"status":       w.Status,
		"balance":      balance.Amount,
		"as_of":        balance.AsOf,
	})
}
