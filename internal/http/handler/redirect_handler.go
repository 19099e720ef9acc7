package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/trisend/trisend/internal/app/service"
	"github.com/trisend/trisend/internal/http/view"
	"go.uber.org/zap"
)

// Recorder schedules background click recording.
type Recorder interface {
	Record(code string, req service.RequestInfo)
}

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger      *zap.Logger
	Resolver    *service.LinkResolver
	Recorder    Recorder
	LandingPath string
	Platform    string
}

// RedirectHandler serves GET /:code.
type RedirectHandler struct {
	logger   *zap.Logger
	resolver *service.LinkResolver
	recorder Recorder
	landing  string
	platform string
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	landing := deps.LandingPath
	if landing == "" {
		landing = "/"
	}
	return &RedirectHandler{
		logger:   logger,
		resolver: deps.Resolver,
		recorder: deps.Recorder,
		landing:  landing,
		platform: deps.Platform,
	}
}

// Register wires the short-link route. It must come after the page and API
// routes so those win.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/:code", h.Resolve)
}

// Resolve handles GET /:code. Segments that are not short codes fall through
// to the next route; every other failure ends in a redirect to the landing page.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if !service.IsShortCode(code) {
		return c.Next()
	}
	code = utils.CopyString(code)

	res := h.resolver.Resolve(c.UserContext(), code)

	switch res.Outcome {
	case service.OutcomeReserved:
		return c.Redirect(h.landing, fiber.StatusFound)
	case service.OutcomeNotFound:
		return c.Redirect(h.landingError(string(res.Outcome), code), fiber.StatusFound)
	case service.OutcomeExpired, service.OutcomeLimitReached, service.OutcomeError:
		return c.Redirect(h.landingError(string(res.Outcome), ""), fiber.StatusFound)
	case service.OutcomePasswordChallenge:
		return h.renderUnlock(c, code, res)
	case service.OutcomeRedirect:
		if h.recorder != nil {
			h.recorder.Record(code, requestInfo(c))
		}
		h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", res.Link.OriginalURL))
		return c.Redirect(res.Link.OriginalURL, fiber.StatusFound)
	default:
		h.logger.Error("unhandled resolution outcome", zap.String("outcome", string(res.Outcome)))
		return c.Redirect(h.landingError(string(service.OutcomeError), ""), fiber.StatusFound)
	}
}

func (h *RedirectHandler) renderUnlock(c *fiber.Ctx, code string, res service.Resolution) error {
	html, err := view.RenderUnlockPage(view.UnlockPageData{
		Platform:  h.platform,
		Code:      code,
		TargetURL: res.Link.OriginalURL,
		Password:  res.Link.Password,
	})
	if err != nil {
		h.logger.Error("failed to render unlock page", zap.String("code", code), zap.Error(err))
		return c.Redirect(h.landingError(string(service.OutcomeError), ""), fiber.StatusFound)
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}

func (h *RedirectHandler) landingError(reason, code string) string {
	q := url.Values{}
	q.Set("err", reason)
	if code != "" {
		q.Set("code", code)
	}
	return h.landing + "?" + q.Encode()
}

// requestInfo copies what the recorder needs; Fiber reuses the request
// buffers once the handler returns.
func requestInfo(c *fiber.Ctx) service.RequestInfo {
	return service.RequestInfo{
		ForwardedFor: utils.CopyString(c.Get(fiber.HeaderXForwardedFor)),
		RemoteAddr:   c.Context().RemoteIP().String(),
		UserAgent:    utils.CopyString(c.Get(fiber.HeaderUserAgent)),
		Referer:      utils.CopyString(c.Get(fiber.HeaderReferer)),
	}
}
