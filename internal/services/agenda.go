package services

import (
	"fmt"

	"github.com/parity-hq/parity-backend/internal/models"
)

// AgendaComposer turns both parties' responses into discussion points. The
// interface exists so agenda generation failures (and their Error-state
// recovery path) can be exercised without a real composer backend.
type AgendaComposer interface {
	Compose(sess *models.JointUnpackSession, prompts []models.Prompt, initiator, invitee map[string]string) ([]models.AgendaItem, error)
}

// PairedComposer is the default composer: one discussion point per prompt,
// pairing the initiator's and invitee's answers.
type PairedComposer struct{}

// Compose builds agenda items deterministically from the stored responses
func (PairedComposer) Compose(sess *models.JointUnpackSession, prompts []models.Prompt, initiator, invitee map[string]string) ([]models.AgendaItem, error) {
	items := make([]models.AgendaItem, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, models.AgendaItem{
			PromptID:          p.ID,
			PromptText:        p.Text,
			InitiatorResponse: initiator[p.ID],
			InviteeResponse:   invitee[p.ID],
			TalkingPoint: fmt.Sprintf("Take turns reading your answers to %q aloud, then talk about where they differ and why.",
				p.Text),
		})
	}
	return items, nil
}
