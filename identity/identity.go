package identity

import (
	"strings"
	"time"
)

// Account represents a registered tournament player.
type Account struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	ProfileID        string    `gorm:"uniqueIndex" json:"profile_id"`
	Name             string    `json:"name"`
	Email            string    `gorm:"uniqueIndex" json:"email"`
	CredentialSecret string    `gorm:"column:credential_secret" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

func (Account) TableName() string { return "accounts" }

// Profile is the public view of an Account. The credential secret and the
// internal id are never part of it.
type Profile struct {
	ProfileID string    `json:"profile_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) Profile() Profile {
	return Profile{
		ProfileID: a.ProfileID,
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address. Every stored email
// and every comparison goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
