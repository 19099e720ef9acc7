package service

import (
	"context"
	"fmt"

	"github.com/trisend/trisend/internal/app/model"
	"github.com/trisend/trisend/internal/app/repository"
)

// ClickSink receives assembled click records.
type ClickSink interface {
	Deliver(ctx context.Context, code string, click *model.Click) error
}

// StoreSink persists clicks straight into the LinkStore.
type StoreSink struct {
	links repository.LinkStore
}

// NewStoreSink returns a sink writing to links.
func NewStoreSink(links repository.LinkStore) *StoreSink {
	return &StoreSink{links: links}
}

// Deliver appends the record then bumps the counter. Stores that support a
// transaction do both at once; otherwise the two writes are independent and
// a failure between them leaves the log ahead of the counter.
func (s *StoreSink) Deliver(ctx context.Context, code string, click *model.Click) error {
	if tx, ok := s.links.(repository.ClickTransactor); ok {
		if err := tx.RecordClick(ctx, code, click); err != nil {
			return fmt.Errorf("record click: %w", err)
		}
		return nil
	}

	if err := s.links.AppendClick(ctx, code, click); err != nil {
		return fmt.Errorf("append click: %w", err)
	}
	if err := s.links.IncrementClicks(ctx, code); err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}
	return nil
}
