package triage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/store"
)

// Notifier delivers the human-facing escalation notification. Delivery is a
// side effect: failure is logged and never blocks the status transition.
type Notifier interface {
	Notify(ctx context.Context, rec model.EscalationRecord) error
}

// LogNotifier is the default delivery mechanism: a structured log event.
type LogNotifier struct{}

// Notify logs the escalation.
func (LogNotifier) Notify(_ context.Context, rec model.EscalationRecord) error {
	zap.L().Info("escalation: notification",
		zap.String("escalation_id", rec.ID),
		zap.String("ticket_id", rec.TicketID),
		zap.String("reason", rec.Reason),
	)
	return nil
}

// Escalator hands tickets off to a human, producing the immutable audit
// record.
type Escalator struct {
	store    store.Store
	notifier Notifier
}

// NewEscalator creates an escalator. notifier may be nil; notifications then
// go to the log.
func NewEscalator(st store.Store, notifier Notifier) *Escalator {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Escalator{store: st, notifier: notifier}
}

// Escalate snapshots the ticket into an EscalationRecord, persists it, fires
// the notification, and marks the ticket escalated. Escalating a ticket that
// already has a record is a no-op returning the existing record, so repeated
// calls never create duplicates.
func (e *Escalator) Escalate(ctx context.Context, t *model.Ticket, reason string, escalationContext string) (*model.EscalationRecord, error) {
	if existing, err := e.store.GetEscalationByTicket(ctx, t.ID); err != nil {
		return nil, eris.Wrap(err, "escalation: lookup existing record")
	} else if existing != nil {
		t.Status = model.StatusEscalated
		return existing, nil
	}

	rec := model.EscalationRecord{
		ID:        uuid.NewString(),
		TicketID:  t.ID,
		Reason:    reason,
		Context:   escalationContext,
		Category:  t.Category,
		CreatedAt: time.Now().UTC(),
	}

	if err := e.store.CreateEscalation(ctx, rec); err != nil {
		return nil, eris.Wrap(err, "escalation: create record")
	}

	if err := e.notifier.Notify(ctx, rec); err != nil {
		zap.L().Warn("escalation: notification failed",
			zap.String("escalation_id", rec.ID),
			zap.String("ticket_id", rec.TicketID),
			zap.Error(err),
		)
	}

	t.Status = model.StatusEscalated
	t.EscalationContext = escalationContext
	return &rec, nil
}
