package handler

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trisend/trisend/internal/app/model"
	"github.com/trisend/trisend/internal/app/repository"
)

func getJSON(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestAPIHandler_GetLink(t *testing.T) {
	f := newRedirectFixture(t, &model.ShortLink{
		Code:        "abc123",
		OriginalURL: "https://example.com",
		Clicks:      4,
		Password:    "c2VjcmV0",
	})
	app := fiber.New()
	NewAPIHandler(APIDeps{Links: f.store, Clicks: f.store}).Register(app)

	var body map[string]any
	if status := getJSON(t, app, "/api/links/abc123", &body); status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["originalUrl"] != "https://example.com" || body["clicks"] != float64(4) || body["protected"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, leaked := body["password"]; leaked {
		t.Fatal("password must not be exposed")
	}

	if status := getJSON(t, app, "/api/links/missing", nil); status != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestAPIHandler_ListClicks(t *testing.T) {
	f := newRedirectFixture(t, &model.ShortLink{Code: "abc123", OriginalURL: "https://example.com"})
	for _, id := range []string{"c1", "c2", "c3"} {
		if err := f.db.Create(&model.Click{ID: id, LinkCode: "abc123", TS: time.Now()}).Error; err != nil {
			t.Fatalf("seed click: %v", err)
		}
	}
	app := fiber.New()
	NewAPIHandler(APIDeps{Links: f.store, Clicks: f.store}).Register(app)

	var body struct {
		Clicks []model.Click `json:"clicks"`
		Limit  int           `json:"limit"`
		Count  int           `json:"count"`
	}
	if status := getJSON(t, app, "/api/links/abc123/clicks?limit=2", &body); status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body.Limit != 2 || body.Count != 2 || len(body.Clicks) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAPIHandler_ListClicksWithoutClickLog(t *testing.T) {
	app := fiber.New()
	NewAPIHandler(APIDeps{Links: repository.NewRESTLinkStore("http://127.0.0.1:1", "demo")}).Register(app)

	if status := getJSON(t, app, "/api/links/abc123/clicks", nil); status != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
}

func TestPageHandler_HealthAndConfig(t *testing.T) {
	app := fiber.New()
	NewPageHandler(PageDeps{
		Platform:          "Trisend",
		PaystackPublicKey: "pk_test",
		StoreMode:         "fallback",
	}).Register(app)

	var health map[string]any
	if status := getJSON(t, app, "/health", &health); status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if health["status"] != "ok" || health["store"] != "fallback" || health["paystack"] != "missing" {
		t.Fatalf("unexpected health: %v", health)
	}

	var cfg map[string]any
	getJSON(t, app, "/api/config", &cfg)
	if cfg["paystackPublicKey"] != "pk_test" || cfg["platform"] != "Trisend" {
		t.Fatalf("unexpected config: %v", cfg)
	}
}
