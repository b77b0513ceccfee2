package store

import (
	"context"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// TicketFilter specifies criteria for listing tickets.
type TicketFilter struct {
	Status model.TicketStatus `json:"status,omitempty"`
	Limit  int                `json:"limit,omitempty"`
	Offset int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for the triage pipeline.
type Store interface {
	// Tickets
	CreateTicket(ctx context.Context, t *model.Ticket) error
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	UpdateTicket(ctx context.Context, t *model.Ticket) error
	ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error)

	// Escalations. Records are append-only: there is no update or delete.
	CreateEscalation(ctx context.Context, rec model.EscalationRecord) error
	GetEscalationByTicket(ctx context.Context, ticketID string) (*model.EscalationRecord, error)
	ListEscalations(ctx context.Context) ([]model.EscalationRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
