package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
)

// MemoryStore holds all data in memory for tests and local development
type MemoryStore struct {
	users       map[string]*models.User
	soloPreps   map[string]*models.SoloPrepSession
	soloResps   map[string]*models.SoloPrepResponse // keyed sessionID|promptID
	sessions    map[string]*models.JointUnpackSession
	responses   map[string]*models.PromptResponse // keyed sessionID|party|promptID
	invitations map[string]*models.Invitation     // keyed by token
	agendas     map[string]*models.Agenda         // keyed by sessionID
	uplifts     map[string]*models.UpliftMessage

	// Mutexes for thread safety
	userMu    sync.RWMutex
	soloMu    sync.RWMutex
	sessionMu sync.RWMutex
	inviteMu  sync.RWMutex
	agendaMu  sync.RWMutex
	upliftMu  sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*models.User),
		soloPreps:   make(map[string]*models.SoloPrepSession),
		soloResps:   make(map[string]*models.SoloPrepResponse),
		sessions:    make(map[string]*models.JointUnpackSession),
		responses:   make(map[string]*models.PromptResponse),
		invitations: make(map[string]*models.Invitation),
		agendas:     make(map[string]*models.Agenda),
		uplifts:     make(map[string]*models.UpliftMessage),
	}
}

// User operations

func (m *MemoryStore) CreateUser(reg *models.UserRegistration) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, reg.Email) {
			return nil, apperrors.ErrEmailTaken
		}
	}

	now := time.Now()
	user := &models.User{
		ID:              uuid.NewString(),
		Name:            reg.Name,
		Email:           reg.Email,
		Phone:           reg.Phone,
		IsPremium:       false,
		TrialsRemaining: models.DefaultTrialCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUser(id string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	existing, exists := m.users[user.ID]
	if !exists {
		return apperrors.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) ConsumeTrial(userID string) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return apperrors.ErrNotFound
	}
	if user.TrialsRemaining > 0 {
		user.TrialsRemaining--
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SetPremium(userID string, premium bool) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return apperrors.ErrNotFound
	}
	user.IsPremium = premium
	user.UpdatedAt = time.Now()
	return nil
}

// Solo prep operations

func (m *MemoryStore) CreateSoloPrepSession(sess *models.SoloPrepSession) (*models.SoloPrepSession, error) {
	m.soloMu.Lock()
	defer m.soloMu.Unlock()

	now := time.Now()
	sess.ID = uuid.NewString()
	sess.Status = models.SoloPrepStatusInProgress
	sess.CreatedAt = now
	sess.UpdatedAt = now

	cp := *sess
	m.soloPreps[sess.ID] = &cp
	return sess, nil
}

func (m *MemoryStore) GetSoloPrepSession(id string) (*models.SoloPrepSession, error) {
	m.soloMu.RLock()
	defer m.soloMu.RUnlock()

	sess, exists := m.soloPreps[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MemoryStore) GetSoloPrepSessionsByUser(userID string) ([]*models.SoloPrepSession, error) {
	m.soloMu.RLock()
	defer m.soloMu.RUnlock()

	var sessions []*models.SoloPrepSession
	for _, sess := range m.soloPreps {
		if sess.UserID == userID {
			cp := *sess
			sessions = append(sessions, &cp)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (m *MemoryStore) UpdateSoloPrepSession(sess *models.SoloPrepSession) error {
	m.soloMu.Lock()
	defer m.soloMu.Unlock()

	if _, exists := m.soloPreps[sess.ID]; !exists {
		return apperrors.ErrNotFound
	}
	sess.UpdatedAt = time.Now()
	cp := *sess
	m.soloPreps[sess.ID] = &cp
	return nil
}

func (m *MemoryStore) SaveSoloPrepResponse(resp *models.SoloPrepResponse) (*models.SoloPrepResponse, error) {
	m.soloMu.Lock()
	defer m.soloMu.Unlock()

	key := resp.SessionID + "|" + resp.PromptID
	now := time.Now()
	if existing, exists := m.soloResps[key]; exists {
		existing.Content = resp.Content
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	resp.ID = uuid.NewString()
	resp.CreatedAt = now
	resp.UpdatedAt = now
	cp := *resp
	m.soloResps[key] = &cp
	return resp, nil
}

func (m *MemoryStore) GetSoloPrepResponses(sessionID string) ([]*models.SoloPrepResponse, error) {
	m.soloMu.RLock()
	defer m.soloMu.RUnlock()

	var responses []*models.SoloPrepResponse
	for _, resp := range m.soloResps {
		if resp.SessionID == sessionID {
			cp := *resp
			responses = append(responses, &cp)
		}
	}
	return responses, nil
}

// Joint unpack session operations

func (m *MemoryStore) CreateJointUnpackSession(sess *models.JointUnpackSession) (*models.JointUnpackSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	now := time.Now()
	sess.ID = uuid.NewString()
	sess.Status = models.SessionStatusCreated
	sess.CreatedAt = now
	sess.UpdatedAt = now

	cp := *sess
	m.sessions[sess.ID] = &cp
	return sess, nil
}

func (m *MemoryStore) GetJointUnpackSession(id string) (*models.JointUnpackSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	sess, exists := m.sessions[id]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *MemoryStore) GetJointUnpackSessionsByInitiator(userID string) ([]*models.JointUnpackSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var sessions []*models.JointUnpackSession
	for _, sess := range m.sessions {
		if sess.InitiatorID == userID {
			cp := *sess
			sessions = append(sessions, &cp)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (m *MemoryStore) UpdateSessionStatus(id string, status string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	sess, exists := m.sessions[id]
	if !exists {
		return apperrors.ErrNotFound
	}
	sess.Status = status
	sess.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) CompareAndSetStatus(id string, from string, to string) (bool, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	sess, exists := m.sessions[id]
	if !exists {
		return false, apperrors.ErrNotFound
	}
	if sess.Status != from {
		return false, nil
	}
	sess.Status = to
	sess.UpdatedAt = time.Now()
	return true, nil
}

// BindInvitee claims the guest seat. First bind wins; rebinding the same name
// is a no-op, any other name fails.
func (m *MemoryStore) BindInvitee(sessionID string, inviteeName string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	sess, exists := m.sessions[sessionID]
	if !exists {
		return apperrors.ErrNotFound
	}
	if sess.InviteeName == "" {
		sess.InviteeName = inviteeName
		sess.UpdatedAt = time.Now()
		return nil
	}
	if sess.InviteeName == inviteeName {
		return nil
	}
	return apperrors.ErrTokenAlreadyClaimed
}

func (m *MemoryStore) SetPartyReady(sessionID string, party string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	sess, exists := m.sessions[sessionID]
	if !exists {
		return apperrors.ErrNotFound
	}
	switch party {
	case models.PartyInitiator:
		sess.InitiatorReady = true
	case models.PartyInvitee:
		sess.InviteeReady = true
	default:
		return apperrors.ErrUnauthorized
	}
	sess.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeleteJointUnpackSession(id string) error {
	m.sessionMu.Lock()
	if _, exists := m.sessions[id]; !exists {
		m.sessionMu.Unlock()
		return apperrors.ErrNotFound
	}
	delete(m.sessions, id)
	for key, resp := range m.responses {
		if resp.SessionID == id {
			delete(m.responses, key)
		}
	}
	m.sessionMu.Unlock()

	m.inviteMu.Lock()
	for token, inv := range m.invitations {
		if inv.SessionID == id {
			delete(m.invitations, token)
		}
	}
	m.inviteMu.Unlock()

	m.agendaMu.Lock()
	delete(m.agendas, id)
	m.agendaMu.Unlock()
	return nil
}

// Prompt response operations

func (m *MemoryStore) SavePromptResponse(resp *models.PromptResponse) (*models.PromptResponse, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if _, exists := m.sessions[resp.SessionID]; !exists {
		return nil, apperrors.ErrNotFound
	}

	key := resp.SessionID + "|" + resp.Party + "|" + resp.PromptID
	now := time.Now()
	if existing, exists := m.responses[key]; exists {
		existing.Content = resp.Content
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	resp.ID = uuid.NewString()
	resp.CreatedAt = now
	resp.UpdatedAt = now
	cp := *resp
	m.responses[key] = &cp
	return resp, nil
}

func (m *MemoryStore) GetPromptResponses(sessionID string, party string) ([]*models.PromptResponse, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var responses []*models.PromptResponse
	for _, resp := range m.responses {
		if resp.SessionID == sessionID && resp.Party == party {
			cp := *resp
			responses = append(responses, &cp)
		}
	}
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].PromptID < responses[j].PromptID
	})
	return responses, nil
}

// Invitation operations

func (m *MemoryStore) CreateInvitation(inv *models.Invitation) (*models.Invitation, error) {
	m.inviteMu.Lock()
	defer m.inviteMu.Unlock()

	now := time.Now()
	inv.ID = uuid.NewString()
	inv.Status = models.InvitationStatusActive
	inv.CreatedAt = now
	inv.UpdatedAt = now

	cp := *inv
	m.invitations[inv.Token] = &cp
	return inv, nil
}

func (m *MemoryStore) GetInvitationByToken(token string) (*models.Invitation, error) {
	m.inviteMu.RLock()
	defer m.inviteMu.RUnlock()

	inv, exists := m.invitations[token]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MemoryStore) GetActiveInvitationBySession(sessionID string) (*models.Invitation, error) {
	m.inviteMu.RLock()
	defer m.inviteMu.RUnlock()

	for _, inv := range m.invitations {
		if inv.SessionID == sessionID && inv.Status == models.InvitationStatusActive {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *MemoryStore) UpdateInvitation(inv *models.Invitation) error {
	m.inviteMu.Lock()
	defer m.inviteMu.Unlock()

	if _, exists := m.invitations[inv.Token]; !exists {
		return apperrors.ErrNotFound
	}
	inv.UpdatedAt = time.Now()
	cp := *inv
	m.invitations[inv.Token] = &cp
	return nil
}

func (m *MemoryStore) RevokeInvitations(sessionID string) error {
	m.inviteMu.Lock()
	defer m.inviteMu.Unlock()

	for _, inv := range m.invitations {
		if inv.SessionID == sessionID && inv.Status == models.InvitationStatusActive {
			inv.Status = models.InvitationStatusRevoked
			inv.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpiredInvitations() (int, error) {
	m.inviteMu.Lock()
	defer m.inviteMu.Unlock()

	now := time.Now()
	removed := 0
	for token, inv := range m.invitations {
		if inv.Status == models.InvitationStatusRevoked || inv.Expired(now) {
			delete(m.invitations, token)
			removed++
		}
	}
	return removed, nil
}

// Agenda operations

func (m *MemoryStore) SaveAgenda(agenda *models.Agenda) (*models.Agenda, error) {
	m.agendaMu.Lock()
	defer m.agendaMu.Unlock()

	now := time.Now()
	if existing, exists := m.agendas[agenda.SessionID]; exists {
		agenda.ID = existing.ID
		agenda.Version = existing.Version + 1
	} else {
		agenda.ID = uuid.NewString()
		agenda.Version = 1
	}
	agenda.GeneratedAt = now
	agenda.CreatedAt = now

	cp := *agenda
	m.agendas[agenda.SessionID] = &cp
	return agenda, nil
}

func (m *MemoryStore) GetAgendaBySession(sessionID string) (*models.Agenda, error) {
	m.agendaMu.RLock()
	defer m.agendaMu.RUnlock()

	agenda, exists := m.agendas[sessionID]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	cp := *agenda
	return &cp, nil
}

// Uplift message operations

func (m *MemoryStore) CreateUpliftMessage(msg *models.UpliftMessage) (*models.UpliftMessage, error) {
	m.upliftMu.Lock()
	defer m.upliftMu.Unlock()

	now := time.Now()
	msg.ID = uuid.NewString()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	cp := *msg
	m.uplifts[msg.ID] = &cp
	return msg, nil
}

func (m *MemoryStore) UpdateUpliftMessage(msg *models.UpliftMessage) error {
	m.upliftMu.Lock()
	defer m.upliftMu.Unlock()

	if _, exists := m.uplifts[msg.ID]; !exists {
		return apperrors.ErrNotFound
	}
	msg.UpdatedAt = time.Now()
	cp := *msg
	m.uplifts[msg.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUpliftMessagesBySender(senderID string) ([]*models.UpliftMessage, error) {
	m.upliftMu.RLock()
	defer m.upliftMu.RUnlock()

	var messages []*models.UpliftMessage
	for _, msg := range m.uplifts {
		if msg.SenderID == senderID {
			cp := *msg
			messages = append(messages, &cp)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}
