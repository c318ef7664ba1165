package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/storage"
)

type fixture struct {
	store       *storage.MemoryStore
	invitations *InvitationService
	coordinator *SessionCoordinator
	soloPrep    *SoloPrepService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	invitations := NewInvitationService(store)
	return &fixture{
		store:       store,
		invitations: invitations,
		coordinator: NewSessionCoordinator(store, invitations, PairedComposer{}, "https://app.test"),
		soloPrep:    NewSoloPrepService(store),
	}
}

func (f *fixture) createUser(t *testing.T, name string, premium bool) *models.User {
	t.Helper()
	user, err := f.store.CreateUser(&models.UserRegistration{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
	})
	require.NoError(t, err)
	if premium {
		require.NoError(t, f.store.SetPremium(user.ID, true))
		user.IsPremium = true
	}
	return user
}

func (f *fixture) drainTrials(t *testing.T, userID string) {
	t.Helper()
	for i := 0; i < models.DefaultTrialCount; i++ {
		require.NoError(t, f.store.ConsumeTrial(userID))
	}
}

// completedPrep runs the journaling flow to completion for the user
func (f *fixture) completedPrep(t *testing.T, userID string) *models.SoloPrepSession {
	t.Helper()
	prep, err := f.soloPrep.Start(userID, models.RelationshipPartner, "the dishes argument")
	require.NoError(t, err)
	for _, id := range models.RequiredPromptIDs(models.RelationshipPartner) {
		_, err := f.soloPrep.SaveResponse(userID, prep.ID, id, "my honest answer for "+id)
		require.NoError(t, err)
	}
	prep, err = f.soloPrep.Complete(userID, prep.ID)
	require.NoError(t, err)
	return prep
}

// invitedSession creates a session with an issued invitation and returns the
// live token
func (f *fixture) invitedSession(t *testing.T, userID string) (*models.JointUnpackSession, string) {
	t.Helper()
	prep := f.completedPrep(t, userID)
	sess, err := f.coordinator.CreateFromSoloPrep(userID, prep.ID)
	require.NoError(t, err)
	inv, link, err := f.coordinator.GenerateInvitation(userID, sess.ID)
	require.NoError(t, err)
	require.Contains(t, link, inv.Token)
	return sess, inv.Token
}

func (f *fixture) answerAll(t *testing.T, sessionID, party string) {
	t.Helper()
	for _, id := range models.RequiredPromptIDs(models.RelationshipPartner) {
		_, err := f.coordinator.SaveResponse(sessionID, party, id, party+" answer for "+id)
		require.NoError(t, err)
	}
}

func TestCreateFromSoloPrep(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "ana", false)
	prep := f.completedPrep(t, user.ID)

	// Starting the prep already consumed one trial
	afterPrep, err := f.store.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.DefaultTrialCount-1, afterPrep.TrialsRemaining)

	sess, err := f.coordinator.CreateFromSoloPrep(user.ID, prep.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCreated, sess.Status)
	require.Equal(t, prep.RelationshipType, sess.RelationshipType)
	require.Equal(t, prep.ConversationTopic, sess.ConversationTopic)
	require.Equal(t, user.ID, sess.InitiatorID)
	require.Empty(t, sess.InviteeName)

	converted, err := f.store.GetSoloPrepSession(prep.ID)
	require.NoError(t, err)
	require.Equal(t, models.SoloPrepStatusConverted, converted.Status)

	// Exactly one more trial consumed for the joint session
	after, err := f.store.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.DefaultTrialCount-2, after.TrialsRemaining)
}

func TestCreateFromSoloPrep_PaywallBlocked(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "ben", false)
	prep := f.completedPrep(t, user.ID)
	f.drainTrials(t, user.ID)

	_, err := f.coordinator.CreateFromSoloPrep(user.ID, prep.ID)
	require.ErrorIs(t, err, apperrors.ErrPaywallBlocked)

	// No session created, no trial movement
	sessions, err := f.coordinator.ListSessions(user.ID)
	require.NoError(t, err)
	require.Empty(t, sessions)
	after, err := f.store.GetUser(user.ID)
	require.NoError(t, err)
	require.Zero(t, after.TrialsRemaining)
}

func TestCreateFromSoloPrep_PremiumSkipsTrials(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "carol", true)
	prep := f.completedPrep(t, user.ID)

	_, err := f.coordinator.CreateFromSoloPrep(user.ID, prep.ID)
	require.NoError(t, err)

	after, err := f.store.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.DefaultTrialCount, after.TrialsRemaining)
}

func TestCreateFromSoloPrep_Preconditions(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "dora", false)
	other := f.createUser(t, "eve", false)

	prep, err := f.soloPrep.Start(owner.ID, models.RelationshipPartner, "topic")
	require.NoError(t, err)

	_, err = f.coordinator.CreateFromSoloPrep(other.ID, prep.ID)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Not completed yet
	_, err = f.coordinator.CreateFromSoloPrep(owner.ID, prep.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionNotActive)

	_, err = f.coordinator.CreateFromSoloPrep(owner.ID, "no-such-prep")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGenerateInvitation_ReissueInvalidatesPrior(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "fay", true)
	sess, firstToken := f.invitedSession(t, user.ID)

	got, err := f.store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusInvited, got.Status)

	second, _, err := f.coordinator.GenerateInvitation(user.ID, sess.ID)
	require.NoError(t, err)
	require.NotEqual(t, firstToken, second.Token)

	// Old token is dead, new one works
	_, err = f.invitations.Validate(firstToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
	_, err = f.invitations.Validate(second.Token)
	require.NoError(t, err)
}

func TestGenerateInvitation_RejectedAfterClaim(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "gil", true)
	sess, token := f.invitedSession(t, user.ID)

	_, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)

	_, _, err = f.coordinator.GenerateInvitation(user.ID, sess.ID)
	require.ErrorIs(t, err, apperrors.ErrTokenAlreadyClaimed)
}

func TestAccessAsGuest_BindsOnce(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "hana", true)
	sess, token := f.invitedSession(t, user.ID)

	view, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusResponding, view.Status)
	require.Equal(t, "hana", view.InitiatorName)
	require.Len(t, view.Prompts, len(models.RequiredPromptIDs(models.RelationshipPartner)))

	// Same identity may re-enter
	_, err = f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)

	// A different identity never wins the seat
	_, err = f.coordinator.AccessAsGuest(token, "Mallory")
	require.ErrorIs(t, err, apperrors.ErrTokenAlreadyClaimed)

	got, err := f.store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, "Sam", got.InviteeName)
}

func TestAccessAsGuest_ExpiredTokenLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "iris", true)
	sess, _ := f.invitedSession(t, user.ID)

	expired := &models.Invitation{
		SessionID: sess.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	_, err := f.store.CreateInvitation(expired)
	require.NoError(t, err)

	_, err = f.coordinator.AccessAsGuest("expired-token", "Sam")
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)

	got, err := f.store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusInvited, got.Status)
	require.Empty(t, got.InviteeName)
}

func TestSaveResponse_Validation(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "jon", true)
	sess, token := f.invitedSession(t, user.ID)
	_, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)

	_, err = f.coordinator.SaveResponse(sess.ID, models.PartyInvitee, "partner-1", "   ")
	require.ErrorIs(t, err, apperrors.ErrEmptyContent)

	_, err = f.coordinator.SaveResponse(sess.ID, models.PartyInvitee, "no-such-prompt", "hello")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.coordinator.SaveResponse(sess.ID, models.PartyInvitee, "partner-1", "a real answer")
	require.NoError(t, err)
}

func TestConfirmReady_IncompleteResponses(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "kim", true)
	sess, token := f.invitedSession(t, user.ID)
	_, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)

	// Two of three prompts answered
	_, err = f.coordinator.SaveResponse(sess.ID, models.PartyInvitee, "partner-1", "answer one")
	require.NoError(t, err)
	_, err = f.coordinator.SaveResponse(sess.ID, models.PartyInvitee, "partner-2", "answer two")
	require.NoError(t, err)

	_, err = f.coordinator.ConfirmReadyToReveal(sess.ID, models.PartyInvitee)
	require.ErrorIs(t, err, apperrors.ErrIncompleteResponses)

	got, err := f.store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.False(t, got.InviteeReady)
}

func TestFullRevealFlow(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "lena", true)
	sess, token := f.invitedSession(t, user.ID)

	_, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)

	f.answerAll(t, sess.ID, models.PartyInvitee)
	f.answerAll(t, sess.ID, models.PartyInitiator)

	// Reveal is gated until both confirm
	_, err = f.coordinator.GetMutualResponses(sess.ID)
	require.ErrorIs(t, err, apperrors.ErrNotReady)

	after, err := f.coordinator.ConfirmReadyToReveal(sess.ID, models.PartyInvitee)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusResponding, after.Status)

	_, err = f.coordinator.GetMutualResponses(sess.ID)
	require.ErrorIs(t, err, apperrors.ErrNotReady)

	after, err = f.coordinator.ConfirmReadyToReveal(sess.ID, models.PartyInitiator)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusReadyToReveal, after.Status)
	require.True(t, after.InitiatorReady)
	require.True(t, after.InviteeReady)

	items, err := f.coordinator.GetMutualResponses(sess.ID)
	require.NoError(t, err)
	require.Len(t, items, len(models.RequiredPromptIDs(models.RelationshipPartner)))
	for _, item := range items {
		require.NotEmpty(t, item.InitiatorResponse)
		require.NotEmpty(t, item.InviteeResponse)
	}
}

func TestConfirmReady_Idempotent(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "maya", true)
	sess, token := f.invitedSession(t, user.ID)
	_, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)
	f.answerAll(t, sess.ID, models.PartyInvitee)

	first, err := f.coordinator.ConfirmReadyToReveal(sess.ID, models.PartyInvitee)
	require.NoError(t, err)
	second, err := f.coordinator.ConfirmReadyToReveal(sess.ID, models.PartyInvitee)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.True(t, second.InviteeReady)
	require.False(t, second.InitiatorReady)
}

func TestConfirmReady_ConcurrentConfirmations(t *testing.T) {
	// Both parties confirm simultaneously; whichever call observes both
	// flags performs the flip. Neither confirmation may be lost and the
	// session must land in ready_to_reveal every time.
	for i := 0; i < 50; i++ {
		f := newFixture(t)
		user := f.createUser(t, "lena", true)
		sess, token := f.invitedSession(t, user.ID)
		_, err := f.coordinator.AccessAsGuest(token, "Sam")
		require.NoError(t, err)
		f.answerAll(t, sess.ID, models.PartyInvitee)
		f.answerAll(t, sess.ID, models.PartyInitiator)

		var wg sync.WaitGroup
		confirmErrs := make([]error, 2)
		for j, party := range []string{models.PartyInitiator, models.PartyInvitee} {
			wg.Add(1)
			go func(j int, party string) {
				defer wg.Done()
				_, confirmErrs[j] = f.coordinator.ConfirmReadyToReveal(sess.ID, party)
			}(j, party)
		}
		wg.Wait()

		require.NoError(t, confirmErrs[0])
		require.NoError(t, confirmErrs[1])

		got, err := f.store.GetJointUnpackSession(sess.ID)
		require.NoError(t, err)
		require.Equal(t, models.SessionStatusReadyToReveal, got.Status)
		require.True(t, got.InitiatorReady)
		require.True(t, got.InviteeReady)
	}
}

func revealedSession(t *testing.T, f *fixture, userID string) *models.JointUnpackSession {
	t.Helper()
	sess, token := f.invitedSession(t, userID)
	_, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)
	f.answerAll(t, sess.ID, models.PartyInvitee)
	f.answerAll(t, sess.ID, models.PartyInitiator)
	_, err = f.coordinator.ConfirmReadyToReveal(sess.ID, models.PartyInvitee)
	require.NoError(t, err)
	sess, err = f.coordinator.ConfirmReadyToReveal(sess.ID, models.PartyInitiator)
	require.NoError(t, err)
	return sess
}

func TestGenerateAgenda_IdempotentAndRegenerate(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "nora", true)
	sess := revealedSession(t, f, user.ID)

	first, err := f.coordinator.GenerateAgenda(user.ID, sess.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)
	items, err := first.Items()
	require.NoError(t, err)
	require.Len(t, items, len(models.RequiredPromptIDs(models.RelationshipPartner)))

	got, err := f.store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusRevealed, got.Status)

	// Same agenda both times without the regenerate flag
	repeat, err := f.coordinator.GenerateAgenda(user.ID, sess.ID, false)
	require.NoError(t, err)
	require.Equal(t, first.ID, repeat.ID)
	require.Equal(t, first.Version, repeat.Version)

	// Explicit regeneration produces a new version
	rebuilt, err := f.coordinator.GenerateAgenda(user.ID, sess.ID, true)
	require.NoError(t, err)
	require.Equal(t, 2, rebuilt.Version)
}

func TestGenerateAgenda_NotReady(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "omar", true)
	sess, token := f.invitedSession(t, user.ID)
	_, err := f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)

	_, err = f.coordinator.GenerateAgenda(user.ID, sess.ID, false)
	require.ErrorIs(t, err, apperrors.ErrNotReady)
}

// flakyComposer fails a configured number of times before succeeding
type flakyComposer struct {
	failures int
}

func (fc *flakyComposer) Compose(sess *models.JointUnpackSession, prompts []models.Prompt, initiator, invitee map[string]string) ([]models.AgendaItem, error) {
	if fc.failures > 0 {
		fc.failures--
		return nil, errors.New("composer backend unavailable")
	}
	return PairedComposer{}.Compose(sess, prompts, initiator, invitee)
}

func TestGenerateAgenda_FailureThenRetry(t *testing.T) {
	f := newFixture(t)
	f.coordinator = NewSessionCoordinator(f.store, f.invitations, &flakyComposer{failures: 1}, "https://app.test")
	user := f.createUser(t, "pia", true)
	sess := revealedSession(t, f, user.ID)

	_, err := f.coordinator.GenerateAgenda(user.ID, sess.ID, false)
	require.Error(t, err)

	got, err := f.store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusError, got.Status)

	// Session stays queryable and the retry succeeds with no residue
	_, err = f.coordinator.GetInviteeStatus(user.ID, sess.ID)
	require.NoError(t, err)

	agenda, err := f.coordinator.GenerateAgenda(user.ID, sess.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, agenda.Version)

	got, err = f.store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusRevealed, got.Status)
}

func TestGetInviteeStatus(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "rae", true)
	sess, token := f.invitedSession(t, user.ID)

	status, err := f.coordinator.GetInviteeStatus(user.ID, sess.ID)
	require.NoError(t, err)
	require.False(t, status.InviteeJoined)
	require.Equal(t, models.PartyStatePending, status.InviteeState)

	_, err = f.coordinator.AccessAsGuest(token, "Sam")
	require.NoError(t, err)

	status, err = f.coordinator.GetInviteeStatus(user.ID, sess.ID)
	require.NoError(t, err)
	require.True(t, status.InviteeJoined)
	require.Equal(t, "Sam", status.InviteeName)
	require.Equal(t, models.PartyStateResponding, status.InviteeState)
	require.False(t, status.BothReady)

	other := f.createUser(t, "sal", true)
	_, err = f.coordinator.GetInviteeStatus(other.ID, sess.ID)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGetInviteeStatus_LapsedInvitationExpiresSession(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "tess", true)
	sess, token := f.invitedSession(t, user.ID)

	// Age the live invitation past its expiry
	inv, err := f.store.GetInvitationByToken(token)
	require.NoError(t, err)
	inv.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, f.store.UpdateInvitation(inv))

	status, err := f.coordinator.GetInviteeStatus(user.ID, sess.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusExpired, status.Status)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "uma", true)
	other := f.createUser(t, "vik", true)
	sess, _ := f.invitedSession(t, user.ID)

	require.ErrorIs(t, f.coordinator.DeleteSession(other.ID, sess.ID), apperrors.ErrUnauthorized)
	require.NoError(t, f.coordinator.DeleteSession(user.ID, sess.ID))

	_, err := f.coordinator.GetSession(user.ID, sess.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
