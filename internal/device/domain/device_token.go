package domain

import "time"

// DeviceToken is a push token issued to one browser or installed PWA.
// Rows are never removed; Active=false is the soft delete.
type DeviceToken struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Token     string    `json:"-" gorm:"column:device_token;uniqueIndex;not null"` // Don't expose token in JSON
	Active    bool      `json:"is_active" gorm:"column:is_active;not null;default:true;index"`
	UserAgent *string   `json:"user_agent" gorm:"column:user_agent"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeviceToken) TableName() string {
	return "pwa_device_tokens"
}

// Action tells the caller what a registration did to the table.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
)
