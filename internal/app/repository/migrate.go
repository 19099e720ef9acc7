package repository

import (
	"context"
	"fmt"

	"github.com/trisend/trisend/internal/app/model"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the shortlinks, clicks and users tables.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.ShortLink{}, &model.Click{}, &model.User{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
