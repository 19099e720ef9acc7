package repository

import (
	"context"
	"errors"

	"github.com/trisend/trisend/internal/app/model"
)

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrMalformedDocument signals that the store returned data it could not decode.
	ErrMalformedDocument = errors.New("malformed link document")
	// ErrClickLogUnavailable signals that the active store keeps no click log.
	ErrClickLogUnavailable = errors.New("click log unavailable")
)

// LinkStore is the data access contract for short links and their click log.
// The native store and the read-only REST fallback both satisfy it.
type LinkStore interface {
	Get(ctx context.Context, code string) (*model.ShortLink, error)
	AppendClick(ctx context.Context, code string, click *model.Click) error
	IncrementClicks(ctx context.Context, code string) error
}

// ClickTransactor is implemented by stores that can append the click record
// and bump the counter in a single transaction.
type ClickTransactor interface {
	RecordClick(ctx context.Context, code string, click *model.Click) error
}

// ClickReader lists the click log of a link, newest first.
type ClickReader interface {
	ListClicks(ctx context.Context, code string, limit int) ([]model.Click, error)
}
