package services

import (
	"log"
	"strings"
	"time"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/storage"
)

// SoloPrepService owns the single-party journaling flow that precedes a joint
// unpack session
type SoloPrepService struct {
	store storage.Store
}

// NewSoloPrepService creates the solo prep service
func NewSoloPrepService(store storage.Store) *SoloPrepService {
	return &SoloPrepService{store: store}
}

// Start begins a solo prep session. Paywall-gated the same way joint sessions
// are; a trial is consumed only on success and only for free accounts.
func (s *SoloPrepService) Start(userID, relationshipType, topic string) (*models.SoloPrepSession, error) {
	if !models.ValidRelationshipType(relationshipType) {
		return nil, apperrors.ErrNotFound
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperrors.ErrEmptyContent
	}

	user, err := s.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if err := CheckPaywall(user); err != nil {
		return nil, err
	}

	sess, err := s.store.CreateSoloPrepSession(&models.SoloPrepSession{
		UserID:            userID,
		RelationshipType:  relationshipType,
		ConversationTopic: topic,
	})
	if err != nil {
		return nil, err
	}

	if !user.IsPremium {
		if err := s.store.ConsumeTrial(userID); err != nil {
			log.Printf("⚠️  Failed to consume trial for %s: %v", userID, err)
		}
	}
	return sess, nil
}

// Get returns a session to its owner
func (s *SoloPrepService) Get(userID, sessionID string) (*models.SoloPrepSession, error) {
	sess, err := s.store.GetSoloPrepSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return sess, nil
}

// List returns the owner's sessions, newest first
func (s *SoloPrepService) List(userID string) ([]*models.SoloPrepSession, error) {
	return s.store.GetSoloPrepSessionsByUser(userID)
}

// SaveResponse upserts one journaling answer
func (s *SoloPrepService) SaveResponse(userID, sessionID, promptID, content string) (*models.SoloPrepResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.ErrEmptyContent
	}

	sess, err := s.Get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != models.SoloPrepStatusInProgress {
		return nil, apperrors.ErrSessionNotActive
	}
	if !promptInCatalog(sess.RelationshipType, promptID) {
		return nil, apperrors.ErrNotFound
	}

	return s.store.SaveSoloPrepResponse(&models.SoloPrepResponse{
		SessionID: sessionID,
		PromptID:  promptID,
		Content:   content,
	})
}

// GetResponses returns the owner's journaling answers for a session
func (s *SoloPrepService) GetResponses(userID, sessionID string) ([]*models.SoloPrepResponse, error) {
	if _, err := s.Get(userID, sessionID); err != nil {
		return nil, err
	}
	return s.store.GetSoloPrepResponses(sessionID)
}

// Complete finishes the journaling flow. Requires every prompt answered;
// only completed sessions can convert into a joint unpack session.
func (s *SoloPrepService) Complete(userID, sessionID string) (*models.SoloPrepSession, error) {
	sess, err := s.Get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SoloPrepStatusCompleted {
		return sess, nil
	}
	if sess.Status != models.SoloPrepStatusInProgress {
		return nil, apperrors.ErrSessionNotActive
	}

	responses, err := s.store.GetSoloPrepResponses(sessionID)
	if err != nil {
		return nil, err
	}
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		if strings.TrimSpace(r.Content) != "" {
			answered[r.PromptID] = true
		}
	}
	for _, id := range models.RequiredPromptIDs(sess.RelationshipType) {
		if !answered[id] {
			return nil, apperrors.ErrIncompleteResponses
		}
	}

	now := time.Now()
	sess.Status = models.SoloPrepStatusCompleted
	sess.CompletedAt = &now
	if err := s.store.UpdateSoloPrepSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}
