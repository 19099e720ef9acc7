package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trisend/trisend/internal/app/model"
	"go.uber.org/zap"
)

const (
	linkCachePrefix = "shortlink:"

	// evictedMarker holds the key for evictHold after a counter change. Reads
	// that started before the change populate with SETNX, so they cannot put a
	// stale count back while the marker is there.
	evictedMarker = "-"
	evictHold     = 2 * time.Second
)

// CachedLinkStore puts a Redis cache-aside layer in front of another LinkStore.
// Entries are evicted whenever the counter changes so click limits see fresh
// counts. A read slower than evictHold can still cache a stale count until
// the next click or the TTL.
type CachedLinkStore struct {
	next   LinkStore
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLinkStore wraps next with a Redis cache.
func NewCachedLinkStore(next LinkStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedLinkStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedLinkStore{next: next, redis: client, ttl: ttl, logger: logger}
}

// cachedLink mirrors model.ShortLink including the password, which the API JSON hides.
type cachedLink struct {
	Code        string     `json:"code"`
	OriginalURL string     `json:"originalUrl"`
	Clicks      int64      `json:"clicks"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	MaxClicks   *int64     `json:"maxClicks,omitempty"`
	Password    string     `json:"password,omitempty"`
	LastClickAt *time.Time `json:"lastClickAt,omitempty"`
}

func (s *CachedLinkStore) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	key := linkCachePrefix + code

	raw, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil && string(raw) == evictedMarker:
	case err == nil:
		var entry cachedLink
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			return entry.toModel(), nil
		}
		s.logger.Warn("dropping undecodable cache entry", zap.String("code", code))
		_ = s.redis.Del(ctx, key).Err()
	case !errors.Is(err, redis.Nil):
		// Cache outage falls through to the store.
		s.logger.Warn("link cache read failed", zap.String("code", code), zap.Error(err))
	}

	link, err := s.next.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(fromModel(link)); err == nil {
		if err := s.redis.SetNX(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn("link cache write failed", zap.String("code", code), zap.Error(err))
		}
	}
	return link, nil
}

func (s *CachedLinkStore) AppendClick(ctx context.Context, code string, click *model.Click) error {
	return s.next.AppendClick(ctx, code, click)
}

func (s *CachedLinkStore) IncrementClicks(ctx context.Context, code string) error {
	defer s.evict(ctx, code)
	return s.next.IncrementClicks(ctx, code)
}

// RecordClick uses the wrapped store's transaction when it has one.
func (s *CachedLinkStore) RecordClick(ctx context.Context, code string, click *model.Click) error {
	defer s.evict(ctx, code)
	if tx, ok := s.next.(ClickTransactor); ok {
		return tx.RecordClick(ctx, code, click)
	}
	if err := s.next.AppendClick(ctx, code, click); err != nil {
		return err
	}
	return s.next.IncrementClicks(ctx, code)
}

// ListClicks delegates to the wrapped store when it keeps a click log.
func (s *CachedLinkStore) ListClicks(ctx context.Context, code string, limit int) ([]model.Click, error) {
	reader, ok := s.next.(ClickReader)
	if !ok {
		return nil, ErrClickLogUnavailable
	}
	return reader.ListClicks(ctx, code, limit)
}

func (s *CachedLinkStore) evict(ctx context.Context, code string) {
	if err := s.redis.Set(ctx, linkCachePrefix+code, evictedMarker, evictHold).Err(); err != nil {
		s.logger.Warn("link cache evict failed", zap.String("code", code), zap.Error(err))
	}
}

func fromModel(l *model.ShortLink) cachedLink {
	return cachedLink{
		Code:        l.Code,
		OriginalURL: l.OriginalURL,
		Clicks:      l.Clicks,
		ExpiresAt:   l.ExpiresAt,
		MaxClicks:   l.MaxClicks,
		Password:    l.Password,
		LastClickAt: l.LastClickAt,
	}
}

func (c cachedLink) toModel() *model.ShortLink {
	return &model.ShortLink{
		Code:        c.Code,
		OriginalURL: c.OriginalURL,
		Clicks:      c.Clicks,
		ExpiresAt:   c.ExpiresAt,
		MaxClicks:   c.MaxClicks,
		Password:    c.Password,
		LastClickAt: c.LastClickAt,
	}
}
