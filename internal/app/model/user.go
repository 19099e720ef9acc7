package model

import "time"

const PlanPremium = "premium"

// User holds the account fields touched by payment verification.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;size:128"`
	Email       string     `json:"email" gorm:"size:255"`
	Plan        string     `json:"plan" gorm:"size:32;not null;default:free"`
	PaystackRef string     `json:"paystackRef" gorm:"column:paystack_ref;size:128"`
	UpgradedAt  *time.Time `json:"upgradedAt,omitempty"`
}

func (User) TableName() string { return "users" }
