// Package geoip resolves visitor IPs to coarse locations through an
// ip-api compatible HTTP service.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	infraPrometheus "github.com/trisend/trisend/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 3 * time.Second
	cachePrefix    = "geo:"
	cacheTTL       = 24 * time.Hour
	lookupFields   = "status,country,regionName,city,countryCode,lat,lon"
)

// Info is the geographic snapshot stored on a click.
type Info struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	City        string  `json:"city"`
	Region      string  `json:"regionName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

var (
	// Local is returned for private, loopback and unspecified addresses.
	Local = Info{Country: "Local", CountryCode: "XX", City: "Local"}
	// Unknown is returned whenever a lookup fails.
	Unknown = Info{Country: "Unknown", CountryCode: "XX", City: "Unknown"}
)

// Config configures a Resolver.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Redis caches successful lookups when set.
	Redis  *redis.Client
	Logger *zap.Logger
}

// Resolver looks up IPs. It never returns an error; failures yield Unknown.
type Resolver struct {
	baseURL string
	timeout time.Duration
	redis   *redis.Client
	logger  *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		redis:   cfg.Redis,
		logger:  logger,
	}
}

type lookupResponse struct {
	Info
	Status string `json:"status"`
}

// Resolve returns best-effort geo metadata for ip.
func (r *Resolver) Resolve(ctx context.Context, ip string) Info {
	if IsLocal(ip) {
		infraPrometheus.GeoLookups.WithLabelValues("local").Inc()
		return Local
	}
	addr, err := parseAddr(ip)
	if err != nil {
		infraPrometheus.GeoLookups.WithLabelValues("invalid").Inc()
		return Unknown
	}
	key := cachePrefix + addr.String()

	if r.redis != nil {
		if raw, err := r.redis.Get(ctx, key).Bytes(); err == nil {
			var info Info
			if json.Unmarshal(raw, &info) == nil {
				infraPrometheus.GeoLookups.WithLabelValues("cached").Inc()
				return info
			}
		}
	}

	info, err := r.lookup(addr)
	if err != nil {
		r.logger.Debug("geo lookup failed", zap.String("ip", ip), zap.Error(err))
		infraPrometheus.GeoLookups.WithLabelValues("failed").Inc()
		return Unknown
	}
	infraPrometheus.GeoLookups.WithLabelValues("resolved").Inc()

	if r.redis != nil {
		if data, err := json.Marshal(info); err == nil {
			if err := r.redis.Set(ctx, key, data, cacheTTL).Err(); err != nil {
				r.logger.Debug("geo cache write failed", zap.Error(err))
			}
		}
	}
	return info
}

func (r *Resolver) lookup(addr netip.Addr) (Info, error) {
	agent := fiber.Get(fmt.Sprintf("%s/json/%s?fields=%s", r.baseURL, addr.String(), lookupFields))
	agent.Timeout(r.timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Info{}, errs[0]
	}
	if status != fiber.StatusOK {
		return Info{}, fmt.Errorf("geoip: unexpected status %d", status)
	}

	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Info{}, fmt.Errorf("geoip: decode: %w", err)
	}
	if resp.Status != "success" {
		return Info{}, fmt.Errorf("geoip: lookup status %q", resp.Status)
	}
	return resp.Info, nil
}

// IsLocal reports whether ip is empty, localhost or a private, loopback,
// link-local or unspecified address.
func IsLocal(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" || strings.EqualFold(ip, "localhost") {
		return true
	}
	addr, err := parseAddr(ip)
	if err != nil {
		return false
	}
	return addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast()
}

func parseAddr(ip string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return netip.Addr{}, err
	}
	return addr.Unmap().WithZone(""), nil
}
