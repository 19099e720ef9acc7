package repository

import (
	"context"
	"errors"
	"time"

	"github.com/trisend/trisend/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound signals that no user record exists for the id.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository defines the writes performed after a verified payment.
type UserRepository interface {
	UpgradePlan(ctx context.Context, userID, plan, reference string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) UpgradePlan(ctx context.Context, userID, plan, reference string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"plan":         plan,
			"paystack_ref": reference,
			"upgraded_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
