package models

import "time"

// UpliftMessage is a short encouragement sent to a partner's phone. Stored
// always; delivered via SMS when messaging is configured.
type UpliftMessage struct {
	ID       string `json:"id" gorm:"primaryKey"`
	SenderID string `json:"sender_id" gorm:"index"`

	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone" gorm:"index"`

	Body string `json:"body"`

	DeliveryStatus string     `json:"delivery_status"` // "stored", "sent", "failed"
	SentAt         *time.Time `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Delivery status constants
const (
	DeliveryStatusStored = "stored"
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)
