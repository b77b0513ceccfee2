package triage

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// DecideFeedback applies the bounded retry state machine to client feedback
// and mutates the ticket accordingly. Satisfied closes the ticket. An
// unsatisfied client gets another automated pass while attempts remain,
// incrementing the counter and recording the clarification; once attempts
// are exhausted the ticket escalates. Feedback on a terminal ticket is a
// caller error, so a rejected ticket never consumes an attempt.
func DecideFeedback(t *model.Ticket, fb model.Feedback, maxAttempts int) (model.FeedbackOutcome, error) {
	if maxAttempts <= 0 {
		maxAttempts = 2
	}

	if t.Status.Terminal() {
		return model.FeedbackOutcome{}, eris.Errorf("feedback: ticket %s is terminal (%s)", t.ID, t.Status)
	}

	if fb.Satisfied {
		t.Status = model.StatusClosed
		return model.FeedbackOutcome{
			Action:   model.ActionClose,
			Attempts: t.Attempts,
			Message:  "Ticket clos: le client est satisfait de la réponse.",
		}, nil
	}

	if t.Attempts < maxAttempts {
		t.Attempts++
		if fb.Clarification != "" {
			t.Clarifications = append(t.Clarifications, fb.Clarification)
		}
		zap.L().Info("feedback: retrying ticket",
			zap.String("ticket_id", t.ID),
			zap.Int("attempts", t.Attempts),
			zap.Int("max_attempts", maxAttempts),
		)
		return model.FeedbackOutcome{
			Action:   model.ActionRetry,
			Attempts: t.Attempts,
			Message:  fmt.Sprintf("Nouvelle tentative automatique (%d/%d).", t.Attempts, maxAttempts),
		}, nil
	}

	return model.FeedbackOutcome{
		Action:   model.ActionEscalate,
		Attempts: t.Attempts,
		Message:  "Tentatives automatiques épuisées: transmission à un agent humain.",
	}, nil
}
