package asset

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
)

// Handler exposes asset registry endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an asset handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	TotalSupply  uint64 `json:"total_supply"`
	CurrentPrice uint64 `json:"current_price"`
}

// Create registers a new asset owned by the authenticated trader.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	a, err := h.service.Create(c.UserContext(), CreateInput{
		ID:           req.ID,
		Name:         req.Name,
		Symbol:       req.Symbol,
		TotalSupply:  req.TotalSupply,
		CurrentPrice: req.CurrentPrice,
		OwnerID:      uid,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyExists):
			return fiber.NewError(http.StatusConflict, "asset already exists")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient funds for storage deposit")
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(assetResponse(a))
}

// Get returns one asset record.
func (h *Handler) Get(c *fiber.Ctx) error {
	a, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "asset not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(assetResponse(a))
}

// List returns all asset records.
func (h *Handler) List(c *fiber.Ctx) error {
	assets, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetResponse(a))
	}
	return c.JSON(fiber.Map{"assets": out})
}

func assetResponse(a Asset) fiber.Map {
	return fiber.Map{
		"id":            a.ID,
		"owner_id":      a.OwnerID,
		"name":          a.Name,
		"symbol":        a.Symbol,
		"total_supply":  a.TotalSupply,
		"current_price": a.CurrentPrice,
		"deposit":       a.Deposit,
		"created_at":    a.CreatedAt,
	}
}
