package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/storage"
)

// SessionCoordinator owns the joint unpack session lifecycle: creation from a
// completed solo prep, invitation issuance, guest access, response
// collection, the both-ready reveal gate, and agenda generation. It is the
// only writer of session status; each party writes only its own responses and
// ready flag.
type SessionCoordinator struct {
	store       storage.Store
	invitations *InvitationService
	composer    AgendaComposer
	inviteBase  string
}

// NewSessionCoordinator creates the coordinator. inviteBase is the public URL
// prefix invitation links are built from.
func NewSessionCoordinator(store storage.Store, invitations *InvitationService, composer AgendaComposer, inviteBase string) *SessionCoordinator {
	if composer == nil {
		composer = PairedComposer{}
	}
	return &SessionCoordinator{
		store:       store,
		invitations: invitations,
		composer:    composer,
		inviteBase:  strings.TrimRight(inviteBase, "/"),
	}
}

// InviteeStatus is the poll payload for the initiator waiting on a guest
type InviteeStatus struct {
	SessionID      string `json:"session_id"`
	Status         string `json:"status"`
	InviteeJoined  bool   `json:"invitee_joined"`
	InviteeName    string `json:"invitee_name,omitempty"`
	InitiatorState string `json:"initiator_state"`
	InviteeState   string `json:"invitee_state"`
	BothReady      bool   `json:"both_ready"`
}

// MutualResponseItem pairs both parties' answers to one prompt
type MutualResponseItem struct {
	PromptID          string `json:"prompt_id"`
	PromptText        string `json:"prompt_text"`
	InitiatorResponse string `json:"initiator_response"`
	InviteeResponse   string `json:"invitee_response"`
}

// GuestSessionView is what a guest sees: session context plus the guest's own
// prompts and prior responses. It never includes the initiator's responses.
type GuestSessionView struct {
	SessionID         string                   `json:"session_id"`
	Status            string                   `json:"status"`
	RelationshipType  string                   `json:"relationship_type"`
	ConversationTopic string                   `json:"conversation_topic"`
	InitiatorName     string                   `json:"initiator_name"`
	GuestName         string                   `json:"guest_name"`
	Ready             bool                     `json:"ready"`
	Prompts           []models.Prompt          `json:"prompts"`
	Responses         []*models.PromptResponse `json:"responses"`
}

// CreateFromSoloPrep converts a completed solo prep into a joint unpack
// session. Paywall-gated; a trial is consumed only after the session is
// created, and only for free accounts.
func (c *SessionCoordinator) CreateFromSoloPrep(userID, soloPrepID string) (*models.JointUnpackSession, error) {
	user, err := c.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if err := CheckPaywall(user); err != nil {
		return nil, err
	}

	prep, err := c.store.GetSoloPrepSession(soloPrepID)
	if err != nil {
		return nil, err
	}
	if prep.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	if prep.Status != models.SoloPrepStatusCompleted {
		return nil, apperrors.ErrSessionNotActive
	}

	sess := &models.JointUnpackSession{
		SoloPrepID:        prep.ID,
		InitiatorID:       user.ID,
		InitiatorName:     user.Name,
		RelationshipType:  prep.RelationshipType,
		ConversationTopic: prep.ConversationTopic,
	}
	sess, err = c.store.CreateJointUnpackSession(sess)
	if err != nil {
		return nil, err
	}

	prep.Status = models.SoloPrepStatusConverted
	if err := c.store.UpdateSoloPrepSession(prep); err != nil {
		log.Printf("⚠️  Failed to mark solo prep %s converted: %v", prep.ID, err)
	}

	if !user.IsPremium {
		if err := c.store.ConsumeTrial(user.ID); err != nil {
			log.Printf("⚠️  Failed to consume trial for %s: %v", user.ID, err)
		}
	}
	return sess, nil
}

// GetSession returns a session to its initiator
func (c *SessionCoordinator) GetSession(userID, sessionID string) (*models.JointUnpackSession, error) {
	sess, err := c.store.GetJointUnpackSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.InitiatorID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return sess, nil
}

// ListSessions returns the initiator's sessions, newest first
func (c *SessionCoordinator) ListSessions(userID string) ([]*models.JointUnpackSession, error) {
	return c.store.GetJointUnpackSessionsByInitiator(userID)
}

// GenerateInvitation issues (or reissues) the session's guest invitation.
// Reissuing invalidates the previous token. Once a guest has claimed the
// seat, reissuing to a different guest is not permitted.
func (c *SessionCoordinator) GenerateInvitation(userID, sessionID string) (*models.Invitation, string, error) {
	sess, err := c.GetSession(userID, sessionID)
	if err != nil {
		return nil, "", err
	}
	if sess.InviteeName != "" {
		return nil, "", apperrors.ErrTokenAlreadyClaimed
	}
	if sess.Terminal() || sess.Status == models.SessionStatusError {
		return nil, "", apperrors.ErrSessionNotActive
	}

	inv, err := c.invitations.Issue(sessionID)
	if err != nil {
		return nil, "", err
	}

	if _, err := c.store.CompareAndSetStatus(sessionID, models.SessionStatusCreated, models.SessionStatusInvited); err != nil {
		return nil, "", err
	}
	return inv, c.InviteLink(inv.Token), nil
}

// InviteLink builds the shareable join URL for a token
func (c *SessionCoordinator) InviteLink(token string) string {
	return fmt.Sprintf("%s/join/%s", c.inviteBase, token)
}

// AccessAsGuest redeems an invitation token. The first successful redemption
// binds the guest identity (first bind wins under concurrency); later
// redemptions by the same identity are no-ops, any other identity fails with
// ErrTokenAlreadyClaimed. No failure path mutates session state.
func (c *SessionCoordinator) AccessAsGuest(token, guestName string) (*GuestSessionView, error) {
	guestName = strings.TrimSpace(guestName)
	if guestName == "" {
		return nil, apperrors.ErrEmptyContent
	}

	inv, err := c.invitations.Validate(token)
	if err != nil {
		return nil, err
	}

	if err := c.store.BindInvitee(inv.SessionID, guestName); err != nil {
		return nil, err
	}
	if err := c.invitations.MarkClaimed(inv, guestName); err != nil {
		log.Printf("⚠️  Failed to record claim on invitation %s: %v", inv.ID, err)
	}

	// First claim moves the session into the responding phase
	if _, err := c.store.CompareAndSetStatus(inv.SessionID, models.SessionStatusInvited, models.SessionStatusResponding); err != nil {
		return nil, err
	}

	return c.GuestView(inv.SessionID, guestName)
}

// GuestView assembles the guest-facing session payload: prompts plus the
// guest's own prior responses, and only the initiator details the invitation
// already disclosed.
func (c *SessionCoordinator) GuestView(sessionID, guestName string) (*GuestSessionView, error) {
	sess, err := c.store.GetJointUnpackSession(sessionID)
	if err != nil {
		return nil, err
	}
	responses, err := c.store.GetPromptResponses(sessionID, models.PartyInvitee)
	if err != nil {
		return nil, err
	}
	return &GuestSessionView{
		SessionID:         sess.ID,
		Status:            sess.Status,
		RelationshipType:  sess.RelationshipType,
		ConversationTopic: sess.ConversationTopic,
		InitiatorName:     sess.InitiatorName,
		GuestName:         guestName,
		Ready:             sess.InviteeReady,
		Prompts:           models.PromptsFor(sess.RelationshipType),
		Responses:         responses,
	}, nil
}

// SaveResponse upserts one party's answer to one prompt. Content must be
// non-empty; the caller is assumed already authenticated for the party.
func (c *SessionCoordinator) SaveResponse(sessionID, party, promptID, content string) (*models.PromptResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.ErrEmptyContent
	}

	sess, err := c.store.GetJointUnpackSession(sessionID)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case models.SessionStatusCreated, models.SessionStatusInvited, models.SessionStatusResponding:
		// writable phases
	default:
		return nil, apperrors.ErrSessionNotActive
	}

	if !promptInCatalog(sess.RelationshipType, promptID) {
		return nil, apperrors.ErrNotFound
	}

	return c.store.SavePromptResponse(&models.PromptResponse{
		SessionID: sessionID,
		Party:     party,
		PromptID:  promptID,
		Content:   content,
	})
}

func promptInCatalog(relationshipType, promptID string) bool {
	for _, p := range models.PromptsFor(relationshipType) {
		if p.ID == promptID {
			return true
		}
	}
	return false
}

// ConfirmReadyToReveal marks one party ready. Fails with
// ErrIncompleteResponses when any required prompt lacks a non-empty answer;
// repeating a confirmation is a no-op. After either confirmation the
// both-ready conjunction is re-evaluated and the session flips to
// ready_to_reveal exactly once.
func (c *SessionCoordinator) ConfirmReadyToReveal(sessionID, party string) (*models.JointUnpackSession, error) {
	sess, err := c.store.GetJointUnpackSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Terminal() || sess.Status == models.SessionStatusError {
		return nil, apperrors.ErrSessionNotActive
	}

	alreadyReady := (party == models.PartyInitiator && sess.InitiatorReady) ||
		(party == models.PartyInvitee && sess.InviteeReady)
	if !alreadyReady {
		if err := c.checkResponsesComplete(sess, party); err != nil {
			return nil, err
		}
		if err := c.store.SetPartyReady(sessionID, party); err != nil {
			return nil, err
		}
	}

	sess, err = c.store.GetJointUnpackSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.InitiatorReady && sess.InviteeReady {
		// Whoever observes both flags performs the flip; the CAS makes the
		// concurrent double-evaluation harmless
		if _, err := c.store.CompareAndSetStatus(sessionID, models.SessionStatusResponding, models.SessionStatusReadyToReveal); err != nil {
			return nil, err
		}
		sess, err = c.store.GetJointUnpackSession(sessionID)
		if err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (c *SessionCoordinator) checkResponsesComplete(sess *models.JointUnpackSession, party string) error {
	responses, err := c.store.GetPromptResponses(sess.ID, party)
	if err != nil {
		return err
	}
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		if strings.TrimSpace(r.Content) != "" {
			answered[r.PromptID] = true
		}
	}
	for _, id := range models.RequiredPromptIDs(sess.RelationshipType) {
		if !answered[id] {
			return apperrors.ErrIncompleteResponses
		}
	}
	return nil
}

// GetInviteeStatus is the initiator's readiness poll. A session whose
// invitation lapsed before any guest joined is moved to expired here; beyond
// that bookkeeping the poll never changes status.
func (c *SessionCoordinator) GetInviteeStatus(userID, sessionID string) (*InviteeStatus, error) {
	sess, err := c.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Status == models.SessionStatusInvited && sess.InviteeName == "" {
		if inv, invErr := c.store.GetActiveInvitationBySession(sessionID); invErr == nil && inv.Expired(time.Now()) {
			if _, casErr := c.store.CompareAndSetStatus(sessionID, models.SessionStatusInvited, models.SessionStatusExpired); casErr != nil {
				return nil, casErr
			}
			sess.Status = models.SessionStatusExpired
		}
	}

	return &InviteeStatus{
		SessionID:      sess.ID,
		Status:         sess.Status,
		InviteeJoined:  sess.InviteeName != "",
		InviteeName:    sess.InviteeName,
		InitiatorState: sess.PartyState(models.PartyInitiator),
		InviteeState:   sess.PartyState(models.PartyInvitee),
		BothReady:      sess.InitiatorReady && sess.InviteeReady,
	}, nil
}

// GetMutualResponses reveals both parties' answers. Succeeds iff both ready
// flags are set; otherwise ErrNotReady, guaranteeing no early disclosure.
func (c *SessionCoordinator) GetMutualResponses(sessionID string) ([]MutualResponseItem, error) {
	sess, err := c.store.GetJointUnpackSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.InitiatorReady || !sess.InviteeReady {
		return nil, apperrors.ErrNotReady
	}

	initiator, invitee, err := c.responseMaps(sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]MutualResponseItem, 0)
	for _, p := range models.PromptsFor(sess.RelationshipType) {
		items = append(items, MutualResponseItem{
			PromptID:          p.ID,
			PromptText:        p.Text,
			InitiatorResponse: initiator[p.ID],
			InviteeResponse:   invitee[p.ID],
		})
	}
	return items, nil
}

func (c *SessionCoordinator) responseMaps(sessionID string) (map[string]string, map[string]string, error) {
	initiatorResponses, err := c.store.GetPromptResponses(sessionID, models.PartyInitiator)
	if err != nil {
		return nil, nil, err
	}
	inviteeResponses, err := c.store.GetPromptResponses(sessionID, models.PartyInvitee)
	if err != nil {
		return nil, nil, err
	}
	initiator := make(map[string]string, len(initiatorResponses))
	for _, r := range initiatorResponses {
		initiator[r.PromptID] = r.Content
	}
	invitee := make(map[string]string, len(inviteeResponses))
	for _, r := range inviteeResponses {
		invitee[r.PromptID] = r.Content
	}
	return initiator, invitee, nil
}

// GenerateAgenda produces the discussion agenda and moves the session to
// revealed. Initiator-only. Without the regenerate flag the call is
// idempotent: an existing agenda is returned as-is. Composer failures move
// the session to error; a retry re-attempts generation with no residue from
// the failed attempt.
func (c *SessionCoordinator) GenerateAgenda(userID, sessionID string, regenerate bool) (*models.Agenda, error) {
	sess, err := c.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	existing, err := c.store.GetAgendaBySession(sessionID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil && !regenerate {
		return existing, nil
	}

	switch sess.Status {
	case models.SessionStatusReadyToReveal, models.SessionStatusError:
		if !sess.InitiatorReady || !sess.InviteeReady {
			return nil, apperrors.ErrNotReady
		}
	case models.SessionStatusRevealed:
		// regeneration of an existing agenda
		if existing == nil {
			return nil, apperrors.ErrNotFound
		}
	default:
		return nil, apperrors.ErrNotReady
	}

	initiator, invitee, err := c.responseMaps(sessionID)
	if err != nil {
		return nil, err
	}

	items, err := c.composer.Compose(sess, models.PromptsFor(sess.RelationshipType), initiator, invitee)
	if err != nil {
		// Unrecoverable dependency failure: park the session in error so the
		// initiator gets a retry affordance
		if statusErr := c.store.UpdateSessionStatus(sessionID, models.SessionStatusError); statusErr != nil {
			log.Printf("⚠️  Failed to mark session %s errored: %v", sessionID, statusErr)
		}
		return nil, fmt.Errorf("agenda generation failed: %w", err)
	}

	agenda := &models.Agenda{SessionID: sessionID}
	if err := agenda.SetItems(items); err != nil {
		return nil, err
	}
	agenda, err = c.store.SaveAgenda(agenda)
	if err != nil {
		return nil, err
	}

	if sess.Status != models.SessionStatusRevealed {
		if err := c.store.UpdateSessionStatus(sessionID, models.SessionStatusRevealed); err != nil {
			return nil, err
		}
	}
	return agenda, nil
}

// DeleteSession tears down a session and its responses, invitations, and
// agenda. Initiator-only.
func (c *SessionCoordinator) DeleteSession(userID, sessionID string) error {
	if _, err := c.GetSession(userID, sessionID); err != nil {
		return err
	}
	return c.store.DeleteJointUnpackSession(sessionID)
}
