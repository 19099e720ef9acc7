package handler

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// PageDeps groups dependencies of the page and ops endpoints.
type PageDeps struct {
	Logger            *zap.Logger
	WebRoot           string
	Platform          string
	PaystackPublicKey string
	PaymentsEnabled   bool
	// StoreMode is "native" or "fallback".
	StoreMode string
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
}

// PageHandler serves the HTML pages, /health and /api/config.
type PageHandler struct {
	deps   PageDeps
	logger *zap.Logger
}

// NewPageHandler creates a page handler.
func NewPageHandler(deps PageDeps) *PageHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{deps: deps, logger: logger}
}

// Register wires page and ops routes.
func (h *PageHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/api/config", h.Config)

	if h.deps.WebRoot == "" {
		return
	}
	router.Get("/", h.page("index.html"))
	router.Get("/login", h.page("login.html"))
	router.Get("/signup", h.page("signup.html"))
	router.Get("/dashboard", h.page("dashboard.html"))
}

// RegisterFallback serves index.html for any GET nothing else matched.
func (h *PageHandler) RegisterFallback(router fiber.Router) {
	if h.deps.WebRoot == "" {
		return
	}
	router.Get("*", h.page("index.html"))
}

func (h *PageHandler) page(name string) fiber.Handler {
	path := filepath.Join(h.deps.WebRoot, name)
	return func(c *fiber.Ctx) error {
		return c.SendFile(path)
	}
}

// Health reports service status and which backends are active.
func (h *PageHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	status := "ok"
	body := fiber.Map{
		"platform":  h.deps.Platform,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"paystack":  "missing",
		"store":     h.deps.StoreMode,
	}
	if h.deps.PaymentsEnabled {
		body["paystack"] = "configured"
	}

	if h.deps.Postgres != nil {
		body["postgres"] = "ok"
		if err := h.deps.Postgres.Ping(ctx); err != nil {
			h.logger.Warn("postgres health check failed", zap.Error(err))
			body["postgres"] = "down"
			status = "degraded"
		}
	}
	if h.deps.Redis != nil {
		body["redis"] = "ok"
		if err := h.deps.Redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("redis health check failed", zap.Error(err))
			body["redis"] = "down"
			status = "degraded"
		}
	}

	body["status"] = status
	return c.JSON(body)
}

// Config exposes the public client configuration.
func (h *PageHandler) Config(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"paystackPublicKey": h.deps.PaystackPublicKey,
		"platform":          h.deps.Platform,
	})
}
