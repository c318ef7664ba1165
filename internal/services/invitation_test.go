package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/storage"
)

func TestIssue_OneLiveTokenPerSession(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInvitationService(store)

	first, err := svc.Issue("sess-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)
	require.WithinDuration(t, time.Now().Add(svc.TokenTTL()), first.ExpiresAt, time.Minute)

	second, err := svc.Issue("sess-1")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, err = svc.Validate(first.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	got, err := svc.Validate(second.Token)
	require.NoError(t, err)
	require.Equal(t, "sess-1", got.SessionID)
}

func TestIssue_ScopedToSession(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInvitationService(store)

	a, err := svc.Issue("sess-a")
	require.NoError(t, err)
	_, err = svc.Issue("sess-b")
	require.NoError(t, err)

	// Reissuing for one session leaves the other's token alive
	_, err = svc.Validate(a.Token)
	require.NoError(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInvitationService(store)

	_, err := svc.Validate("never-issued")
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	inv, err := svc.Issue("sess-1")
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate("sess-1"))
	_, err = svc.Validate(inv.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	_, err = store.CreateInvitation(&models.Invitation{
		SessionID: "sess-2",
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.NoError(t, err)
	_, err = svc.Validate("stale-token")
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
}

func TestMarkClaimed(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInvitationService(store)

	inv, err := svc.Issue("sess-1")
	require.NoError(t, err)
	require.NoError(t, svc.MarkClaimed(inv, "Sam"))

	got, err := store.GetInvitationByToken(inv.Token)
	require.NoError(t, err)
	require.Equal(t, "Sam", got.ClaimedBy)
	require.NotNil(t, got.ClaimedAt)

	// First claim wins; a later call never overwrites the identity
	require.NoError(t, svc.MarkClaimed(got, "Mallory"))
	got, err = store.GetInvitationByToken(inv.Token)
	require.NoError(t, err)
	require.Equal(t, "Sam", got.ClaimedBy)
}

func TestTokenTTL_EnvOverride(t *testing.T) {
	t.Setenv("INVITE_TOKEN_TTL_HOURS", "48")
	svc := NewInvitationService(storage.NewMemoryStore())
	require.Equal(t, 48*time.Hour, svc.TokenTTL())
}

func TestTokenTTL_Default(t *testing.T) {
	t.Setenv("INVITE_TOKEN_TTL_HOURS", "")
	svc := NewInvitationService(storage.NewMemoryStore())
	require.Equal(t, 24*time.Hour, svc.TokenTTL())
}

func TestSweeperRemovesDeadInvitations(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewInvitationService(store)

	_, err := store.CreateInvitation(&models.Invitation{
		SessionID: "sess-1",
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	live, err := svc.Issue("sess-2")
	require.NoError(t, err)

	removed, err := store.DeleteExpiredInvitations()
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = store.GetInvitationByToken(live.Token)
	require.NoError(t, err)
}
