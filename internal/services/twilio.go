package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioService wraps SMS delivery. When credentials are absent the service
// is created unconfigured and sends become no-ops, so local development works
// without a Twilio account.
type TwilioService struct {
	client     *twilio.RestClient
	fromNumber string
	configured bool
}

// NewTwilioService initializes Twilio from environment variables
func NewTwilioService() (*TwilioService, error) {
	accountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_PHONE_NUMBER")

	if accountSID == "" || authToken == "" || fromNumber == "" {
		log.Println("⚠️  Twilio credentials not found - SMS delivery disabled")
		return &TwilioService{configured: false}, nil
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioService{
		client:     client,
		fromNumber: fromNumber,
		configured: true,
	}, nil
}

// Configured reports whether SMS delivery is available
func (t *TwilioService) Configured() bool {
	return t != nil && t.configured
}

// SendSMS delivers one text message
func (t *TwilioService) SendSMS(to, body string) error {
	if !t.Configured() {
		return fmt.Errorf("twilio not configured")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(body)

	_, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
