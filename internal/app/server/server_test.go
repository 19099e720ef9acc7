package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/trisend/trisend/config"
	"github.com/trisend/trisend/internal/app/model"
	"github.com/trisend/trisend/internal/app/repository"
	"github.com/trisend/trisend/internal/app/service"
)

const indexHTML = "<html>landing</html>"

// mockLinkStore is a mock implementation of repository.LinkStore.
type mockLinkStore struct {
	links map[string]*model.ShortLink
}

func (m *mockLinkStore) Get(_ context.Context, code string) (*model.ShortLink, error) {
	if link, ok := m.links[code]; ok {
		return link, nil
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkStore) AppendClick(context.Context, string, *model.Click) error { return nil }

func (m *mockLinkStore) IncrementClicks(context.Context, string) error { return nil }

// slowSink takes delay to persist each click.
type slowSink struct {
	delay     time.Duration
	delivered int32
}

func (s *slowSink) Deliver(context.Context, string, *model.Click) error {
	time.Sleep(s.delay)
	atomic.AddInt32(&s.delivered, 1)
	return nil
}

func newWebRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":  indexHTML,
		"app.js":      "console.log('trisend')",
		".env":        "PAYSTACK_SECRET_KEY=sk_live_SECRET",
		"config.yaml": "postgres:\n  password: hunter2\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestServer(t *testing.T, maxRequests int, sink service.ClickSink) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	links := &mockLinkStore{links: map[string]*model.ShortLink{
		"abc123": {Code: "abc123", OriginalURL: "https://example.com/target"},
	}}
	cfg := &config.Config{
		Server: config.ServerConfig{
			WebRoot:     newWebRoot(t),
			LandingPath: "/",
			Platform:    "Trisend",
		},
		RateLimit: config.RateLimitConfig{MaxRequests: maxRequests, Window: time.Minute},
	}

	return New(Dependencies{
		Config:    cfg,
		Redis:     rdb,
		Links:     links,
		StoreMode: "native",
		Resolver:  service.NewLinkResolver(links, nil),
		Recorder:  service.NewClickRecorder(service.ClickRecorderDeps{Sink: sink}),
		Payments:  service.NewPaymentService(service.PaymentDeps{}),
	})
}

func doGet(t *testing.T, s *Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestServer_RouteOrder(t *testing.T) {
	sink := &slowSink{}
	s := newTestServer(t, 100, sink)

	tests := []struct {
		name     string
		path     string
		status   int
		location string
		contains string
	}{
		{name: "health is not a short code", path: "/health", status: fiber.StatusOK, contains: `"status":"ok"`},
		{name: "client config", path: "/api/config", status: fiber.StatusOK, contains: `"platform":"Trisend"`},
		{name: "reserved prefix", path: "/apiXYZ", status: fiber.StatusFound, location: "/"},
		{name: "short code", path: "/abc123", status: fiber.StatusFound, location: "https://example.com/target"},
		{name: "unknown code", path: "/zzz999", status: fiber.StatusFound, location: "/?code=zzz999&err=notfound"},
		{name: "index fallback", path: "/ab", status: fiber.StatusOK, contains: indexHTML},
		{name: "static file", path: "/app.js", status: fiber.StatusOK, contains: "trisend"},
		{name: "root", path: "/", status: fiber.StatusOK, contains: indexHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doGet(t, s, tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			if tt.location != "" && resp.Header.Get(fiber.HeaderLocation) != tt.location {
				t.Fatalf("location = %q, want %q", resp.Header.Get(fiber.HeaderLocation), tt.location)
			}
			if tt.contains != "" && !strings.Contains(body, tt.contains) {
				t.Fatalf("body %q does not contain %q", body, tt.contains)
			}
			if resp.Header.Get(fiber.HeaderXContentTypeOptions) != "nosniff" ||
				resp.Header.Get(fiber.HeaderXFrameOptions) != "SAMEORIGIN" {
				t.Fatalf("missing security headers on %s", tt.path)
			}
		})
	}

	s.deps.Recorder.Wait()
	if n := atomic.LoadInt32(&sink.delivered); n != 1 {
		t.Fatalf("expected 1 recorded click, got %d", n)
	}
}

func TestServer_DoesNotServeSecrets(t *testing.T) {
	s := newTestServer(t, 100, &slowSink{})

	for _, path := range []string{"/.env", "/config.yaml", "/%2eenv"} {
		resp, body := doGet(t, s, path)
		if resp.StatusCode == fiber.StatusOK {
			t.Errorf("GET %s: status 200", path)
		}
		if strings.Contains(body, "SECRET") || strings.Contains(body, "hunter2") {
			t.Errorf("GET %s leaked file contents: %q", path, body)
		}
	}
}

func TestServer_RateLimitsAPI(t *testing.T) {
	s := newTestServer(t, 2, &slowSink{})

	for i, want := range []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests} {
		resp, _ := doGet(t, s, "/api/config")
		if resp.StatusCode != want {
			t.Fatalf("request %d: status %d, want %d", i, resp.StatusCode, want)
		}
	}

	if resp, _ := doGet(t, s, "/health"); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("pages must not be rate limited, got %d", resp.StatusCode)
	}
}

func TestServer_ServeDrainsClicksBeforeReturning(t *testing.T) {
	sink := &slowSink{delay: 300 * time.Millisecond}
	s := newTestServer(t, 100, sink)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln, 5*time.Second) }()

	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get("http://" + ln.Addr().String() + "/abc123")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if n := atomic.LoadInt32(&sink.delivered); n != 1 {
		t.Fatalf("in-flight click not persisted before Serve returned, delivered = %d", n)
	}
}

func TestServer_ServeReturnsWhenCancelledEarly(t *testing.T) {
	s := newTestServer(t, 100, &slowSink{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, time.Second) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
