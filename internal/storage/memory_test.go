package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
)

func newStoreWithSession(t *testing.T) (*MemoryStore, *models.JointUnpackSession) {
	t.Helper()
	store := NewMemoryStore()
	sess, err := store.CreateJointUnpackSession(&models.JointUnpackSession{
		InitiatorID:       "user-1",
		InitiatorName:     "Ana",
		RelationshipType:  models.RelationshipPartner,
		ConversationTopic: "chores",
	})
	require.NoError(t, err)

	swapped, err := store.CompareAndSetStatus(sess.ID, models.SessionStatusCreated, models.SessionStatusInvited)
	require.NoError(t, err)
	require.True(t, swapped)
	sess.Status = models.SessionStatusInvited
	return store, sess
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.CreateUser(&models.UserRegistration{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	_, err = store.CreateUser(&models.UserRegistration{Name: "Other", Email: "ana@example.com"})
	require.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestConsumeTrial_FloorsAtZero(t *testing.T) {
	store := NewMemoryStore()
	user, err := store.CreateUser(&models.UserRegistration{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	for i := 0; i < models.DefaultTrialCount+2; i++ {
		require.NoError(t, store.ConsumeTrial(user.ID))
	}
	got, err := store.GetUser(user.ID)
	require.NoError(t, err)
	require.Zero(t, got.TrialsRemaining)
}

func TestBindInvitee_FirstClaimWins(t *testing.T) {
	store, sess := newStoreWithSession(t)

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.BindInvitee(sess.ID, fmt.Sprintf("guest-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, apperrors.ErrTokenAlreadyClaimed)
		}
	}
	require.Equal(t, 1, winners)

	got, err := store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.InviteeName)
}

func TestBindInvitee_SameNameIsIdempotent(t *testing.T) {
	store, sess := newStoreWithSession(t)

	require.NoError(t, store.BindInvitee(sess.ID, "Sam"))
	require.NoError(t, store.BindInvitee(sess.ID, "Sam"))
	require.ErrorIs(t, store.BindInvitee(sess.ID, "Mallory"), apperrors.ErrTokenAlreadyClaimed)
}

func TestCompareAndSetStatus(t *testing.T) {
	store, sess := newStoreWithSession(t)

	swapped, err := store.CompareAndSetStatus(sess.ID, models.SessionStatusInvited, models.SessionStatusResponding)
	require.NoError(t, err)
	require.True(t, swapped)

	// Stale expectation loses and the status stands
	swapped, err = store.CompareAndSetStatus(sess.ID, models.SessionStatusInvited, models.SessionStatusExpired)
	require.NoError(t, err)
	require.False(t, swapped)

	got, err := store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusResponding, got.Status)

	_, err = store.CompareAndSetStatus("no-such-session", models.SessionStatusInvited, models.SessionStatusExpired)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSavePromptResponse_Upserts(t *testing.T) {
	store, sess := newStoreWithSession(t)

	first, err := store.SavePromptResponse(&models.PromptResponse{
		SessionID: sess.ID,
		Party:     models.PartyInitiator,
		PromptID:  "partner-1",
		Content:   "draft",
	})
	require.NoError(t, err)

	second, err := store.SavePromptResponse(&models.PromptResponse{
		SessionID: sess.ID,
		Party:     models.PartyInitiator,
		PromptID:  "partner-1",
		Content:   "final",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	all, err := store.GetPromptResponses(sess.ID, models.PartyInitiator)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "final", all[0].Content)
}

func TestSetPartyReady(t *testing.T) {
	store, sess := newStoreWithSession(t)

	require.NoError(t, store.SetPartyReady(sess.ID, models.PartyInvitee))
	got, err := store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.True(t, got.InviteeReady)
	require.False(t, got.InitiatorReady)

	require.NoError(t, store.SetPartyReady(sess.ID, models.PartyInitiator))
	got, err = store.GetJointUnpackSession(sess.ID)
	require.NoError(t, err)
	require.True(t, got.InitiatorReady)
}

func TestSaveAgenda_Versions(t *testing.T) {
	store, sess := newStoreWithSession(t)

	agenda := &models.Agenda{SessionID: sess.ID}
	require.NoError(t, agenda.SetItems([]models.AgendaItem{{PromptID: "partner-1", TalkingPoint: "start here"}}))

	saved, err := store.SaveAgenda(agenda)
	require.NoError(t, err)
	require.Equal(t, 1, saved.Version)

	again, err := store.SaveAgenda(&models.Agenda{SessionID: sess.ID, ItemsJSON: saved.ItemsJSON})
	require.NoError(t, err)
	require.Equal(t, 2, again.Version)
	require.Equal(t, saved.ID, again.ID)
}

func TestDeleteJointUnpackSession_Cascades(t *testing.T) {
	store, sess := newStoreWithSession(t)

	_, err := store.SavePromptResponse(&models.PromptResponse{
		SessionID: sess.ID,
		Party:     models.PartyInvitee,
		PromptID:  "partner-1",
		Content:   "answer",
	})
	require.NoError(t, err)
	_, err = store.CreateInvitation(&models.Invitation{SessionID: sess.ID, Token: "tok-1"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteJointUnpackSession(sess.ID))

	_, err = store.GetJointUnpackSession(sess.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	responses, err := store.GetPromptResponses(sess.ID, models.PartyInvitee)
	require.NoError(t, err)
	require.Empty(t, responses)
	_, err = store.GetInvitationByToken("tok-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
