package models

import "time"

// DefaultTrialCount is the number of free sessions a new account can start
// before the paywall applies.
const DefaultTrialCount = 3

// User represents an account. Password verification is handled by the
// upstream identity provider; this service only stores profile and
// subscription state and verifies bearer tokens it issued.
type User struct {
	ID    string `json:"id" gorm:"primaryKey"`
	Name  string `json:"name"`
	Email string `json:"email" gorm:"uniqueIndex"`
	Phone string `json:"phone"`

	// Subscription state consulted by the paywall gate
	IsPremium       bool `json:"is_premium"`
	TrialsRemaining int  `json:"trials_remaining" gorm:"default:3"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRegistration is the payload for account creation
type UserRegistration struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
