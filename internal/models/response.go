package models

import "time"

// PromptResponse is one party's answer to one prompt within a joint unpack
// session. Keyed by (session, party, prompt); each party writes only its own
// rows and never sees the other party's rows before the reveal.
type PromptResponse struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"index:idx_prompt_response,unique"`
	Party     string `json:"party" gorm:"index:idx_prompt_response,unique"`
	PromptID  string `json:"prompt_id" gorm:"index:idx_prompt_response,unique"`

	Content string `json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
