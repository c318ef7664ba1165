package models

import "time"

// JointUnpackSession is the two-party conversation-preparation flow. Status
// transitions are owned exclusively by the coordinator; each party owns its
// own ready flag and response set. Status moves forward only, except Error
// which is reachable from any state.
type JointUnpackSession struct {
	ID         string `json:"id" gorm:"primaryKey"`
	SoloPrepID string `json:"solo_prep_id" gorm:"index"`

	InitiatorID   string `json:"initiator_id" gorm:"index"`
	InitiatorName string `json:"initiator_name"`

	// Immutable once set, copied from the originating solo prep
	RelationshipType  string `json:"relationship_type"`
	ConversationTopic string `json:"conversation_topic"`

	// Empty until a guest claims the invitation; bound at most once
	InviteeName string `json:"invitee_name"`

	Status string `json:"status"`

	// Independent readiness flags; both true gates the reveal
	InitiatorReady bool `json:"initiator_ready"`
	InviteeReady   bool `json:"invitee_ready"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session status constants
const (
	SessionStatusCreated       = "created"
	SessionStatusInvited       = "invited"
	SessionStatusResponding    = "responding"
	SessionStatusReadyToReveal = "ready_to_reveal"
	SessionStatusRevealed      = "revealed"
	SessionStatusExpired       = "expired"
	SessionStatusError         = "error"
)

// Party roles
const (
	PartyInitiator = "initiator"
	PartyInvitee   = "invitee"
)

// Per-party progress labels reported by status polling
const (
	PartyStatePending    = "pending"    // invitee only: invitation not yet claimed
	PartyStateResponding = "responding" // writing responses
	PartyStateCompleted  = "completed"  // confirmed ready to reveal
)

// PartyState returns the progress label for one party of a session
func (s *JointUnpackSession) PartyState(party string) string {
	switch party {
	case PartyInitiator:
		if s.InitiatorReady {
			return PartyStateCompleted
		}
		return PartyStateResponding
	case PartyInvitee:
		if s.InviteeReady {
			return PartyStateCompleted
		}
		if s.InviteeName == "" {
			return PartyStatePending
		}
		return PartyStateResponding
	}
	return ""
}

// Terminal reports whether the session can make no further forward progress
func (s *JointUnpackSession) Terminal() bool {
	return s.Status == SessionStatusRevealed || s.Status == SessionStatusExpired
}
