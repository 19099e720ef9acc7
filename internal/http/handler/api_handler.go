package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trisend/trisend/internal/app/model"
	"github.com/trisend/trisend/internal/app/repository"
	"go.uber.org/zap"
)

const (
	defaultClickLimit = 50
	maxClickLimit     = 500
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger *zap.Logger
	Links  repository.LinkStore
	// Clicks is nil when the active store keeps no click log.
	Clicks repository.ClickReader
}

// APIHandler implements the read-only link analytics endpoints.
type APIHandler struct {
	logger *zap.Logger
	links  repository.LinkStore
	clicks repository.ClickReader
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger: logger,
		links:  deps.Links,
		clicks: deps.Clicks,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		links := api.Group("/links")
		{
			links.Get("/:code", h.GetLink)
			links.Get("/:code/clicks", h.ListClicks)
		}
	}
}

// LinkResponse is the public view of a short link. The password is never exposed.
type LinkResponse struct {
	Code        string     `json:"code"`
	OriginalURL string     `json:"originalUrl"`
	Clicks      int64      `json:"clicks"`
	MaxClicks   *int64     `json:"maxClicks"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	LastClickAt *time.Time `json:"lastClickAt"`
	Protected   bool       `json:"protected"`
	Expired     bool       `json:"expired"`
}

func newLinkResponse(link *model.ShortLink) LinkResponse {
	return LinkResponse{
		Code:        link.Code,
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		MaxClicks:   link.MaxClicks,
		ExpiresAt:   link.ExpiresAt,
		LastClickAt: link.LastClickAt,
		Protected:   link.Protected(),
		Expired:     link.Expired(time.Now()),
	}
}

// GetLink handles GET /api/links/:code
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	link, err := h.links.Get(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to get link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load link",
		})
	}

	return c.JSON(newLinkResponse(link))
}

// ListClicks handles GET /api/links/:code/clicks
func (h *APIHandler) ListClicks(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}
	if h.clicks == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "click log unavailable",
		})
	}

	limit := defaultClickLimit
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= maxClickLimit {
		limit = parsed
	}

	clicks, err := h.clicks.ListClicks(c.UserContext(), code, limit)
	if err != nil {
		if errors.Is(err, repository.ErrClickLogUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "click log unavailable",
			})
		}
		h.logger.Error("failed to list clicks", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list clicks",
		})
	}

	return c.JSON(fiber.Map{
		"code":   code,
		"clicks": clicks,
		"limit":  limit,
		"count":  len(clicks),
	})
}
