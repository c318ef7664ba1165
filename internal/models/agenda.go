package models

import (
	"encoding/json"
	"time"
)

// Agenda is the generated discussion summary produced once both parties are
// ready. Immutable once generated; regeneration replaces the row with a new
// version rather than mutating items in place.
type Agenda struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"uniqueIndex"`
	Version   int    `json:"version"`

	// Items serialized as JSON, same pattern as conversation context storage
	ItemsJSON string `json:"-"`

	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// AgendaItem pairs both perspectives on one prompt with a suggested
// discussion point
type AgendaItem struct {
	PromptID          string `json:"prompt_id"`
	PromptText        string `json:"prompt_text"`
	InitiatorResponse string `json:"initiator_response"`
	InviteeResponse   string `json:"invitee_response"`
	TalkingPoint      string `json:"talking_point"`
}

// Items decodes the serialized agenda items
func (a *Agenda) Items() ([]AgendaItem, error) {
	var items []AgendaItem
	if err := json.Unmarshal([]byte(a.ItemsJSON), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SetItems serializes agenda items for storage
func (a *Agenda) SetItems(items []AgendaItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	a.ItemsJSON = string(data)
	return nil
}
