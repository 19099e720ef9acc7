package model

import "time"

// ShortLink is the document stored under a short code. Links are created
// elsewhere; this service only reads them and bumps the counter.
type ShortLink struct {
	Code        string     `json:"code" gorm:"primaryKey;size:64"`
	OriginalURL string     `json:"originalUrl" gorm:"column:original_url;type:text"`
	Clicks      int64      `json:"clicks" gorm:"not null;default:0"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" gorm:"index"`
	MaxClicks   *int64     `json:"maxClicks,omitempty"`
	Password    string     `json:"-" gorm:"size:512"`
	LastClickAt *time.Time `json:"lastClickAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (ShortLink) TableName() string { return "shortlinks" }

// Expired reports whether the link is past its expiry at now.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// LimitReached reports whether the click ceiling has been hit.
func (l *ShortLink) LimitReached() bool {
	return l.MaxClicks != nil && *l.MaxClicks > 0 && l.Clicks >= *l.MaxClicks
}

// Protected reports whether the link sits behind an unlock page.
func (l *ShortLink) Protected() bool {
	return l.Password != ""
}
