package models

import (
	"database/sql"
	"time"
)

// User represents an account in the marketplace. Credentials and presence live
// here; everything shown on a profile page lives in UserProfile.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"` // constants.ROLE_*
	LastSeenAt   sql.NullTime `json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// UserProfile is the public face of an account. A profile row is created in
// the same transaction as its user row, so code downstream may assume it
// exists for every user.
type UserProfile struct {
	UserID        int64          `json:"user_id"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	PreferredName string         `json:"preferred_name"`
	BusinessName  sql.NullString `json:"-"`
	Summary       sql.NullString `json:"-"`
	Phone         sql.NullString `json:"-"`
	City          string         `json:"city"`
	Province      string         `json:"province"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DisplayName is what shows up in chat bubbles and notification emails.
func (p *UserProfile) DisplayName() string {
	if p.PreferredName != "" {
		return p.PreferredName
	}
	if p.FirstName != "" || p.LastName != "" {
		if p.LastName == "" {
			return p.FirstName
		}
		return p.FirstName + " " + p.LastName
	}
	return "HandymenHub user"
}
