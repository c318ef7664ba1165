package services

import (
	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
)

// CanStart reports whether an account may start a new prep session: premium
// accounts always can, free accounts need a trial remaining.
func CanStart(isPremium bool, trialsRemaining int) bool {
	return isPremium || trialsRemaining > 0
}

// CheckPaywall returns ErrPaywallBlocked when the user may not start a new
// session. Callers consume a trial only after the session is actually
// created, never on a blocked attempt.
func CheckPaywall(user *models.User) error {
	if !CanStart(user.IsPremium, user.TrialsRemaining) {
		return apperrors.ErrPaywallBlocked
	}
	return nil
}
