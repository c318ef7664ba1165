package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/storage"
	"github.com/parity-hq/parity-backend/internal/utils"
)

// DefaultInvitationTTL is how long a guest invitation stays redeemable
const DefaultInvitationTTL = 24 * time.Hour

// InvitationService issues and validates guest access tokens. At most one
// active invitation exists per session; issuing a new one revokes the old.
type InvitationService struct {
	store    storage.Store
	tokenTTL time.Duration
	stopChan chan struct{}
}

// NewInvitationService creates the invitation service. TTL is configurable
// via INVITE_TOKEN_TTL_HOURS.
func NewInvitationService(store storage.Store) *InvitationService {
	ttl := DefaultInvitationTTL
	if hours := os.Getenv("INVITE_TOKEN_TTL_HOURS"); hours != "" {
		if h, err := strconv.Atoi(hours); err == nil && h > 0 {
			ttl = time.Duration(h) * time.Hour
		} else {
			log.Printf("⚠️  Ignoring invalid INVITE_TOKEN_TTL_HOURS=%q", hours)
		}
	}
	return &InvitationService{
		store:    store,
		tokenTTL: ttl,
		stopChan: make(chan struct{}),
	}
}

// TokenTTL returns the configured invitation lifetime
func (s *InvitationService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Issue creates a fresh invitation for a session, revoking any prior one so
// only one token is ever live per session.
func (s *InvitationService) Issue(sessionID string) (*models.Invitation, error) {
	if err := s.store.RevokeInvitations(sessionID); err != nil {
		return nil, fmt.Errorf("failed to revoke prior invitations: %w", err)
	}

	token, err := utils.GenerateInvitationToken()
	if err != nil {
		return nil, err
	}

	inv := &models.Invitation{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	return s.store.CreateInvitation(inv)
}

// Validate resolves a token to its invitation. Unknown, revoked, and expired
// tokens all fail with ErrInvalidOrExpiredToken. Validation never mutates
// session state; a failed redemption leaves the session exactly as it was.
func (s *InvitationService) Validate(token string) (*models.Invitation, error) {
	inv, err := s.store.GetInvitationByToken(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidOrExpiredToken
		}
		return nil, err
	}
	if inv.Status != models.InvitationStatusActive {
		return nil, apperrors.ErrInvalidOrExpiredToken
	}
	if inv.Expired(time.Now()) {
		return nil, apperrors.ErrInvalidOrExpiredToken
	}
	return inv, nil
}

// MarkClaimed records the identity that first redeemed the invitation
func (s *InvitationService) MarkClaimed(inv *models.Invitation, guestName string) error {
	if inv.ClaimedBy != "" {
		return nil
	}
	now := time.Now()
	inv.ClaimedBy = guestName
	inv.ClaimedAt = &now
	return s.store.UpdateInvitation(inv)
}

// Invalidate revokes all active invitations for a session
func (s *InvitationService) Invalidate(sessionID string) error {
	return s.store.RevokeInvitations(sessionID)
}

// StartSweeper begins periodic cleanup of revoked and expired invitation
// rows. Expired tokens already fail validation before cleanup runs; the
// sweeper just keeps the table small.
func (s *InvitationService) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := s.store.DeleteExpiredInvitations()
				if err != nil {
					log.Printf("⚠️  Invitation sweep failed: %v", err)
					continue
				}
				if removed > 0 {
					log.Printf("🧹 Removed %d expired/revoked invitations", removed)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
}

// StopSweeper stops the cleanup routine
func (s *InvitationService) StopSweeper() {
	close(s.stopChan)
}
