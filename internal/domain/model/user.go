package model

import (
	"time"
)

// DefaultAvatar is the sentinel avatar filename a user keeps until they
// upload their own picture.
const DefaultAvatar = "default.jpg"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	AvatarFile     string    `json:"avatar_file"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
