// Package domain contains core domain types for the onboarding service.
package domain

import (
	"time"
)

// User represents an onboarding user and the profile fields collected
// over the course of the conversation.
type User struct {
	UserID        string    `json:"user_id"`
	ZipCode       string    `json:"zip_code,omitempty"`
	FullName      string    `json:"full_name,omitempty"`
	Email         string    `json:"email,omitempty"`
	LicenseType   string    `json:"license_type,omitempty"`
	LicenseStatus string    `json:"license_status,omitempty"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileUpdate carries optional per-field updates for a user profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	ZipCode       *string
	FullName      *string
	Email         *string
	LicenseType   *string
	LicenseStatus *string
}

// IsEmpty returns true if no field is set.
func (p ProfileUpdate) IsEmpty() bool {
	return p.ZipCode == nil && p.FullName == nil && p.Email == nil &&
		p.LicenseType == nil && p.LicenseStatus == nil
}
