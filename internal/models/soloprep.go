package models

import "time"

// SoloPrepSession is the single-party journaling flow that precedes a joint
// unpack session
type SoloPrepSession struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"index"`

	RelationshipType  string `json:"relationship_type"`
	ConversationTopic string `json:"conversation_topic"`

	Status      string     `json:"status"` // "in_progress", "completed", "converted"
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SoloPrepResponse is one journaling answer within a solo prep session
type SoloPrepResponse struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"index:idx_solo_response,unique"`
	PromptID  string    `json:"prompt_id" gorm:"index:idx_solo_response,unique"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SoloPrepSession status constants
const (
	SoloPrepStatusInProgress = "in_progress"
	SoloPrepStatusCompleted  = "completed"
	SoloPrepStatusConverted  = "converted" // turned into a joint unpack session
)
