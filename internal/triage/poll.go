package triage

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/store"
)

// PollConfig bounds the wait for an asynchronously processed ticket.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

func defaultPollConfig() PollConfig {
	return PollConfig{Interval: 500 * time.Millisecond, MaxAttempts: 60}
}

// settled reports whether a ticket has reached a state the caller can act
// on: an answer awaiting feedback or any terminal status.
func settled(s model.TicketStatus) bool {
	return s.Terminal() || s == model.StatusAnswered || s == model.StatusAwaitingFeedback
}

// WaitForTicket polls the store at a fixed interval until the ticket settles
// or attempts run out. A settled status is never re-read as unsettled: the
// first observation wins. Exhaustion escalates the ticket rather than
// surfacing a timeout to the client.
func WaitForTicket(ctx context.Context, st store.Store, escalator *Escalator, ticketID string, cfg PollConfig) (*model.Ticket, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollConfig().Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultPollConfig().MaxAttempts
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		t, err := st.GetTicket(ctx, ticketID)
		if err != nil {
			return nil, eris.Wrap(err, "poll: load ticket")
		}
		if settled(t.Status) {
			return t, nil
		}
		if attempt >= cfg.MaxAttempts {
			zap.L().Warn("poll: attempts exhausted, escalating",
				zap.String("ticket_id", ticketID),
				zap.Int("attempts", attempt),
			)
			if _, escErr := escalator.Escalate(ctx, t, string(model.ReasonAttemptsExhausted),
				"Délai de traitement automatique dépassé."); escErr != nil {
				return nil, eris.Wrap(escErr, "poll: escalate on exhaustion")
			}
			if err := st.UpdateTicket(ctx, t); err != nil {
				zap.L().Warn("poll: failed to persist escalated ticket", zap.Error(err))
			}
			return t, nil
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "poll: wait for ticket")
		case <-ticker.C:
		}
	}
}
