package settlement

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
)

// Handler exposes the settlement endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a settlement handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type acceptRequest struct {
	AssetID    string `json:"asset_id"`
	ClientTxID string `json:"client_tx_id"`
}

// Accept fills the buy offer in the route path on behalf of the authenticated
// seller.
func (h *Handler) Accept(c *fiber.Ctx) error {
	var req acceptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.service.AcceptBuyOffer(c.UserContext(), AcceptInput{
		SellerID:   uid,
		AssetID:    req.AssetID,
		OfferID:    c.Params("id"),
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		switch {
		case errors.Is(err, asset.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "asset not found")
		case errors.Is(err, offer.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "offer not found")
		case errors.Is(err, ErrNotAssetOwner):
			return fiber.NewError(http.StatusForbidden, "not owner of asset")
		case errors.Is(err, ErrOfferMismatch):
			return fiber.NewError(http.StatusConflict, "offer does not reference asset")
		case errors.Is(err, ErrAmountOverflow):
			return fiber.NewError(http.StatusUnprocessableEntity, "settlement amount overflow")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient funds")
		case errors.Is(err, ledger.ErrDuplicateTransaction):
			return fiber.NewError(http.StatusConflict, "duplicate transaction")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"asset_id":       res.AssetID,
		"new_owner_id":   res.NewOwnerID,
		"payment":        res.Payment,
		"seller_balance": res.SellerBalance,
		"buyer_balance":  res.BuyerBalance,
		"completed_at":   res.CompletedAt,
	})
}
