package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trisend/trisend/internal/app/model"
)

const defaultRESTTimeout = 10 * time.Second

// RESTLinkStore reads short links through the public Firestore REST API.
// It holds no credentials, so click writes are accepted and dropped.
type RESTLinkStore struct {
	baseURL   string
	projectID string
	timeout   time.Duration
}

// NewRESTLinkStore returns the read-only fallback LinkStore.
func NewRESTLinkStore(baseURL, projectID string) *RESTLinkStore {
	return &RESTLinkStore{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		timeout:   defaultRESTTimeout,
	}
}

type restDocument struct {
	Fields map[string]restValue `json:"fields"`
}

type restValue struct {
	StringValue    *string  `json:"stringValue"`
	IntegerValue   *string  `json:"integerValue"`
	DoubleValue    *float64 `json:"doubleValue"`
	TimestampValue *string  `json:"timestampValue"`
}

func (s *RESTLinkStore) documentURL(code string) string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents/shortlinks/%s",
		s.baseURL, url.PathEscape(s.projectID), url.PathEscape(code))
}

func (s *RESTLinkStore) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	agent := fiber.Get(s.documentURL(code))
	agent.Timeout(s.timeout)
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("rest store: get %q: %w", code, errors.Join(errs...))
	}

	switch {
	case status == fiber.StatusNotFound:
		return nil, ErrLinkNotFound
	case status < 200 || status > 299:
		return nil, fmt.Errorf("rest store: get %q: unexpected status %d", code, status)
	}

	var doc restDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if len(doc.Fields) == 0 {
		return nil, ErrLinkNotFound
	}

	return decodeDocument(code, doc.Fields)
}

// AppendClick is a no-op: the fallback has no write access.
func (s *RESTLinkStore) AppendClick(context.Context, string, *model.Click) error {
	return nil
}

// IncrementClicks is a no-op: the fallback has no write access.
func (s *RESTLinkStore) IncrementClicks(context.Context, string) error {
	return nil
}

func decodeDocument(code string, f map[string]restValue) (*model.ShortLink, error) {
	link := &model.ShortLink{Code: code}

	if v, ok := f["originalUrl"]; ok && v.StringValue != nil {
		link.OriginalURL = *v.StringValue
	}
	if v, ok := f["password"]; ok && v.StringValue != nil {
		link.Password = *v.StringValue
	}

	clicks, err := f["clicks"].integer()
	if err != nil {
		return nil, fmt.Errorf("%w: clicks: %v", ErrMalformedDocument, err)
	}
	if clicks != nil {
		link.Clicks = *clicks
	}

	maxClicks, err := f["maxClicks"].integer()
	if err != nil {
		return nil, fmt.Errorf("%w: maxClicks: %v", ErrMalformedDocument, err)
	}
	link.MaxClicks = maxClicks

	link.ExpiresAt = f["expiresAt"].timestamp()
	return link, nil
}

func (v restValue) integer() (*int64, error) {
	switch {
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, err
		}
		return &n, nil
	case v.DoubleValue != nil:
		n := int64(*v.DoubleValue)
		return &n, nil
	}
	return nil, nil
}

// timestamp returns nil for absent or unparseable values, which never expire.
func (v restValue) timestamp() *time.Time {
	raw := v.TimestampValue
	if raw == nil {
		raw = v.StringValue
	}
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}
	return nil
}
