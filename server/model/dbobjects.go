package model

import "time"

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

type AuthUser struct {
	BaseModel
	Email     string    `json:"email"`
	Password  string    `json:"-"` // scrypt hash, base64
	CreatedAt time.Time `json:"createdAt"`
}

type AuthSession struct {
	Key        string `gorm:"primaryKey"` // SHA256 of the session token, base64
	AuthUserID int64
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
