package repository

import (
	"context"
	"errors"
	"time"

	"github.com/trisend/trisend/internal/app/model"
	"gorm.io/gorm"
)

// GormLinkStore is the native LinkStore. It also implements ClickTransactor and ClickReader.
type GormLinkStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormLinkStore returns the native, authenticated LinkStore backed by GORM.
func NewGormLinkStore(db *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: db, now: time.Now}
}

func (s *GormLinkStore) Get(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (s *GormLinkStore) AppendClick(ctx context.Context, code string, click *model.Click) error {
	return appendClick(s.db.WithContext(ctx), code, click)
}

func (s *GormLinkStore) IncrementClicks(ctx context.Context, code string) error {
	return incrementClicks(s.db.WithContext(ctx), code, s.now())
}

// RecordClick writes the click record and the counter bump atomically.
func (s *GormLinkStore) RecordClick(ctx context.Context, code string, click *model.Click) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendClick(tx, code, click); err != nil {
			return err
		}
		return incrementClicks(tx, code, s.now())
	})
}

func (s *GormLinkStore) ListClicks(ctx context.Context, code string, limit int) ([]model.Click, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var result []model.Click
	if err := s.db.WithContext(ctx).
		Where("link_code = ?", code).
		Order("ts DESC").
		Limit(limit).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func appendClick(db *gorm.DB, code string, click *model.Click) error {
	click.LinkCode = code
	return db.Create(click).Error
}

func incrementClicks(db *gorm.DB, code string, at time.Time) error {
	result := db.Model(&model.ShortLink{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"clicks":        gorm.Expr("clicks + ?", 1),
			"last_click_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}
