package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated login. The ID is the bearer credential the
// client presents; CreatedAt is the issue time the revocation check compares
// against the owning user's LastRevokeTime.
type Session struct {
	ID        uuid.UUID `json:"id" example:"a1b2c3d4-e5f6-7890-1234-567890abcdef"`
	UserID    string    `json:"userID" example:"V1StGXR8_Z5jdHi6B-myT"`
	UserAgent string    `json:"userAgent" example:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) ..."`
	ClientIP  string    `json:"clientIP" example:"198.51.100.10"`
	CreatedAt time.Time `json:"createdAt"`
}
