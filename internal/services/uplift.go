package services

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/storage"
)

// MaxUpliftLength caps uplift message bodies at an SMS-friendly size
const MaxUpliftLength = 320

// UpliftService stores and delivers short encouragement messages between
// partners. Messages are always persisted; SMS delivery happens when Twilio
// is configured and its outcome is recorded on the message.
type UpliftService struct {
	store  storage.Store
	twilio *TwilioService
}

// NewUpliftService creates the uplift service
func NewUpliftService(store storage.Store, twilio *TwilioService) *UpliftService {
	return &UpliftService{store: store, twilio: twilio}
}

// Send persists an uplift message and attempts SMS delivery
func (s *UpliftService) Send(senderID, recipientName, recipientPhone, body string) (*models.UpliftMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.ErrEmptyContent
	}
	if len(body) > MaxUpliftLength {
		// Back up to a rune boundary so the cut never splits a character
		cut := MaxUpliftLength
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	if strings.TrimSpace(recipientPhone) == "" {
		return nil, apperrors.ErrEmptyContent
	}

	sender, err := s.store.GetUser(senderID)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.CreateUpliftMessage(&models.UpliftMessage{
		SenderID:       senderID,
		RecipientName:  recipientName,
		RecipientPhone: recipientPhone,
		Body:           body,
		DeliveryStatus: models.DeliveryStatusStored,
	})
	if err != nil {
		return nil, err
	}

	if s.twilio.Configured() {
		text := fmt.Sprintf("💛 %s sent you some encouragement on Parity: %q", sender.Name, body)
		if err := s.twilio.SendSMS(recipientPhone, text); err != nil {
			log.Printf("⚠️  Uplift SMS to %s failed: %v", recipientPhone, err)
			msg.DeliveryStatus = models.DeliveryStatusFailed
		} else {
			now := time.Now()
			msg.DeliveryStatus = models.DeliveryStatusSent
			msg.SentAt = &now
		}
		if err := s.store.UpdateUpliftMessage(msg); err != nil {
			log.Printf("⚠️  Failed to record delivery status for %s: %v", msg.ID, err)
		}
	}
	return msg, nil
}

// List returns the caller's sent messages, newest first
func (s *UpliftService) List(senderID string) ([]*models.UpliftMessage, error) {
	return s.store.GetUpliftMessagesBySender(senderID)
}
