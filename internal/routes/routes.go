package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/auth"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/config"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/identity"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/middleware"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/notification"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/settlement"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Storage backends
	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}
	if err := ledgerBackend.EnsureAccount(context.Background(), ledger.StorageSuspenseAccountCode); err != nil {
		return err
	}

	var (
		walletRepo   wallet.Repository
		identityRepo identity.Repository
		assetRepo    asset.Repository
		offerRepo    offer.Repository
	)
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		assetRepo = asset.NewPostgresRepository(d.DB)
		offerRepo = offer.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
		identityRepo = identity.NewMemoryRepository()
		assetRepo = asset.NewMemoryRepository()
		offerRepo = offer.NewMemoryRepository()
	}

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	walletSvc := wallet.NewService(walletRepo, ledgerBackend)
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	assetSvc := asset.NewService(assetRepo, walletSvc, ledgerBackend, d.Cfg.DepositRate)
	offerSvc := offer.NewService(offerRepo, assetSvc, walletSvc, ledgerBackend, notifier, d.Cfg.DepositRate)
	var settlementExec settlement.Executor
	if d.DB != nil {
		settlementExec = settlement.NewPostgresExecutor(d.DB)
	}
	settlementSvc := settlement.NewService(assetSvc, offerSvc, walletSvc, ledgerBackend, settlementExec, notifier)

	authHandler := auth.NewHandler(identitySvc, authSvc, walletSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	assetHandler := asset.NewHandler(assetSvc)
	offerHandler := offer.NewHandler(offerSvc)
	settlementHandler := settlement.NewHandler(settlementSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes first: the JWT middleware guards everything registered
	// on the stack after it.
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterPublicAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	RegisterSessionRoutes(protected, authHandler)
	RegisterWalletRoutes(protected, walletHandler, identityRepo)
	RegisterAssetRoutes(protected, assetHandler, offerHandler)
	RegisterOfferRoutes(protected, offerHandler, settlementHandler)

	return nil
}
