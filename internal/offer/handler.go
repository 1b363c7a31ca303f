package offer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
)

// Handler exposes offer store endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an offer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	ID     string `json:"id"`
	Amount uint64 `json:"amount"`
	Price  uint64 `json:"price"`
}

// Create posts a buy offer against the asset in the route path.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	o, err := h.service.Create(c.UserContext(), CreateInput{
		ID:      req.ID,
		AssetID: c.Params("id"),
		Amount:  req.Amount,
		Price:   req.Price,
		OwnerID: uid,
	})
	if err != nil {
		switch {
		case errors.Is(err, asset.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "asset not found")
		case errors.Is(err, ErrAlreadyExists):
			return fiber.NewError(http.StatusConflict, "offer already exists")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient funds for storage deposit")
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(offerResponse(o))
}

// Get returns one offer record.
func (h *Handler) Get(c *fiber.Ctx) error {
	o, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "offer not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(offerResponse(o))
}

// ListByAsset returns all standing offers against the asset in the route path.
func (h *Handler) ListByAsset(c *fiber.Ctx) error {
	offers, err := h.service.ListByAsset(c.UserContext(), c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerResponse(o))
	}
	return c.JSON(fiber.Map{"offers": out})
}

// Cancel destroys the caller's own offer and refunds its deposit.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if err := h.service.Cancel(c.UserContext(), c.Params("id"), uid); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "offer not found")
		case errors.Is(err, ErrNotOwner):
			return fiber.NewError(http.StatusForbidden, "not owner of offer")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.SendStatus(http.StatusNoContent)
}

func offerResponse(o Offer) fiber.Map {
	return fiber.Map{
		"id":         o.ID,
		"asset_id":   o.AssetID,
		"amount":     o.Amount,
		"price":      o.Price,
		"owner_id":   o.OwnerID,
		"deposit":    o.Deposit,
		"created_at": o.CreatedAt,
	}
}
