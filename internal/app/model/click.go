package model

import "time"

// Click is one append-only visit record of a short link. Geo and device
// fields are a snapshot taken at click time.
type Click struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	LinkCode    string    `json:"linkCode" gorm:"index;size:64;not null"`
	IP          string    `json:"ip" gorm:"size:64"`
	Country     string    `json:"country" gorm:"size:100"`
	CountryCode string    `json:"countryCode" gorm:"size:8"`
	City        string    `json:"city" gorm:"size:100"`
	Region      string    `json:"region" gorm:"size:100"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Device      string    `json:"device" gorm:"size:32"`
	Browser     string    `json:"browser" gorm:"size:32"`
	Referer     string    `json:"referer" gorm:"type:text"`
	UA          string    `json:"ua" gorm:"column:ua;size:256"`
	TS          time.Time `json:"ts" gorm:"column:ts;index"`
}

func (Click) TableName() string { return "clicks" }

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-writer"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
