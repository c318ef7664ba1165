package storage

import (
	"github.com/parity-hq/parity-backend/internal/models"
)

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(reg *models.UserRegistration) (*models.User, error)
	GetUser(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
	ConsumeTrial(userID string) error
	SetPremium(userID string, premium bool) error

	// Solo prep operations
	CreateSoloPrepSession(sess *models.SoloPrepSession) (*models.SoloPrepSession, error)
	GetSoloPrepSession(id string) (*models.SoloPrepSession, error)
	GetSoloPrepSessionsByUser(userID string) ([]*models.SoloPrepSession, error)
	UpdateSoloPrepSession(sess *models.SoloPrepSession) error
	SaveSoloPrepResponse(resp *models.SoloPrepResponse) (*models.SoloPrepResponse, error)
	GetSoloPrepResponses(sessionID string) ([]*models.SoloPrepResponse, error)

	// Joint unpack session operations
	CreateJointUnpackSession(sess *models.JointUnpackSession) (*models.JointUnpackSession, error)
	GetJointUnpackSession(id string) (*models.JointUnpackSession, error)
	GetJointUnpackSessionsByInitiator(userID string) ([]*models.JointUnpackSession, error)
	UpdateSessionStatus(id string, status string) error
	CompareAndSetStatus(id string, from string, to string) (bool, error)
	BindInvitee(sessionID string, inviteeName string) error
	SetPartyReady(sessionID string, party string) error
	DeleteJointUnpackSession(id string) error

	// Prompt response operations
	SavePromptResponse(resp *models.PromptResponse) (*models.PromptResponse, error)
	GetPromptResponses(sessionID string, party string) ([]*models.PromptResponse, error)

	// Invitation operations
	CreateInvitation(inv *models.Invitation) (*models.Invitation, error)
	GetInvitationByToken(token string) (*models.Invitation, error)
	GetActiveInvitationBySession(sessionID string) (*models.Invitation, error)
	UpdateInvitation(inv *models.Invitation) error
	RevokeInvitations(sessionID string) error
	DeleteExpiredInvitations() (int, error)

	// Agenda operations
	SaveAgenda(agenda *models.Agenda) (*models.Agenda, error)
	GetAgendaBySession(sessionID string) (*models.Agenda, error)

	// Uplift message operations
	CreateUpliftMessage(msg *models.UpliftMessage) (*models.UpliftMessage, error)
	UpdateUpliftMessage(msg *models.UpliftMessage) error
	GetUpliftMessagesBySender(senderID string) ([]*models.UpliftMessage, error)
}
