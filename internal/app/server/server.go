package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/trisend/trisend/config"
	"github.com/trisend/trisend/internal/app/repository"
	"github.com/trisend/trisend/internal/app/service"
	inthttp "github.com/trisend/trisend/internal/http/handler"
	"github.com/trisend/trisend/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server wires into its routes.
type Dependencies struct {
	Logger    *zap.Logger
	Config    *config.Config
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	Links     repository.LinkStore
	Clicks    repository.ClickReader
	StoreMode string
	Resolver  *service.LinkResolver
	Recorder  *service.ClickRecorder
	Payments  *service.PaymentService
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               deps.Config.Server.Platform,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the Fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// within timeout. It returns only after in-flight click recordings are done.
func (s *Server) ListenAndServe(ctx context.Context, addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, timeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	served := make(chan error, 1)
	go func() {
		served <- s.app.Listener(ln)
	}()

	select {
	case err := <-served:
		// Listener failed on its own; still drain recordings.
		s.waitRecorder()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := s.Shutdown(shutdownCtx)

	// Closing here unblocks Listener even if shutdown raced its start.
	_ = ln.Close()
	if serveErr := <-served; serveErr != nil && !errors.Is(serveErr, net.ErrClosed) && err == nil {
		err = serveErr
	}
	return err
}

// Shutdown stops accepting requests, then waits for in-flight click recordings.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.waitRecorder()
	return err
}

func (s *Server) waitRecorder() {
	if s.deps.Recorder != nil {
		s.deps.Recorder.Wait()
	}
}

func (s *Server) registerMiddleware() {
	log := s.deps.Logger
	s.app.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.SecurityHeaders(),
	)
	s.app.Use("/api", middleware.CORS())

	if s.deps.Redis != nil {
		rl := s.deps.Config.RateLimit
		s.app.Use("/api", middleware.RateLimit(s.deps.Redis, middleware.RateLimitConfig{
			MaxRequests: rl.MaxRequests,
			Window:      rl.Window,
			KeyPrefix:   "ratelimit:api",
		}, log))
	}
}

// registerRoutes order matters: static files and named pages first, then the
// API, then short codes, then the index.html catch-all.
func (s *Server) registerRoutes() {
	cfg := s.deps.Config
	log := s.deps.Logger

	if cfg.Server.WebRoot != "" {
		s.app.Use(middleware.HiddenFiles())
		s.app.Static("/", cfg.Server.WebRoot, fiber.Static{
			Next: func(c *fiber.Ctx) bool {
				return middleware.IsHiddenPath(c.Path())
			},
		})
	}

	pages := inthttp.NewPageHandler(inthttp.PageDeps{
		Logger:            log,
		WebRoot:           cfg.Server.WebRoot,
		Platform:          cfg.Server.Platform,
		PaystackPublicKey: cfg.Paystack.PublicKey,
		PaymentsEnabled:   s.deps.Payments != nil && s.deps.Payments.Configured(),
		StoreMode:         s.deps.StoreMode,
		Postgres:          s.deps.Postgres,
		Redis:             s.deps.Redis,
	})
	pages.Register(s.app)

	inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger: log,
		Links:  s.deps.Links,
		Clicks: s.deps.Clicks,
	}).Register(s.app)

	if s.deps.Payments != nil {
		inthttp.NewPaymentHandler(inthttp.PaymentDeps{
			Logger:        log,
			Payments:      s.deps.Payments,
			WebhookSecret: cfg.Paystack.SecretKey,
		}).Register(s.app)
	}

	var recorder inthttp.Recorder
	if s.deps.Recorder != nil {
		recorder = s.deps.Recorder
	}
	inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:      log,
		Resolver:    s.deps.Resolver,
		Recorder:    recorder,
		LandingPath: cfg.Server.LandingPath,
		Platform:    cfg.Server.Platform,
	}).Register(s.app)

	pages.RegisterFallback(s.app)
}
