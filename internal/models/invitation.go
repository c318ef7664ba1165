package models

import "time"

// Invitation is the single-use access grant for a session's guest seat. At
// most one invitation is active per session; reissuing revokes the previous
// one. The token itself is opaque to clients.
type Invitation struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"index"`
	Token     string `json:"-" gorm:"uniqueIndex"`

	Status    string     `json:"status"` // "active", "revoked"
	ExpiresAt time.Time  `json:"expires_at"`
	ClaimedBy string     `json:"claimed_by"` // guest display name, set on first redemption
	ClaimedAt *time.Time `json:"claimed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Invitation status constants
const (
	InvitationStatusActive  = "active"
	InvitationStatusRevoked = "revoked"
)

// Expired reports whether the invitation is past its expiry at the given time
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
