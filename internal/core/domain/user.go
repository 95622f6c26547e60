package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleBidder = "bidder"
)

// User is a registered participant. ApprovedToBid is owned by the
// verification workflow and mirrors an approved VerificationRequest.
type User struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	ApprovedToBid bool      `json:"approved_to_bid"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileComplete reports whether the user has set a display name.
func (u *User) ProfileComplete() bool {
	return strings.TrimSpace(u.DisplayName) != ""
}
