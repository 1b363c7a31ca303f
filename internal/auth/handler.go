package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/identity"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

// Handler exposes registration and session endpoints.
type Handler struct {
	identity *identity.Service
	auth     *Service
	wallets  *wallet.Service
}

// NewHandler constructs an auth handler.
func NewHandler(identitySvc *identity.Service, authSvc *Service, walletSvc *wallet.Service) *Handler {
	return &Handler{identity: identitySvc, auth: authSvc, wallets: walletSvc}
}

type credentialsRequest struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

// Register creates a trader identity and provisions its wallet.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.identity.Register(c.UserContext(), identity.Credentials{Email: req.Email, PIN: req.PIN})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	w, err := h.wallets.Create(c.UserContext(), wallet.CreateInput{OwnerID: user.ID})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user_id":   user.ID,
		"email":     user.Email,
		"wallet_id": w.ID,
	})
}

// Login verifies credentials and issues a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.identity.Authenticate(c.UserContext(), identity.Credentials{Email: req.Email, PIN: req.PIN})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}

	tokens, err := h.auth.Login(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a fresh access token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	access, expiresIn, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{"access_token": access, "expires_in": expiresIn})
}

// Logout invalidates all outstanding tokens for the authenticated trader.
func (h *Handler) Logout(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return c.SendStatus(http.StatusUnauthorized)
	}
	if err := h.auth.Logout(c.UserContext(), uid); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
