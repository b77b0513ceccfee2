package model

import "time"

// EscalationRecord is the immutable audit record created when a ticket is
// handed off to a human. Records are never updated or deleted.
type EscalationRecord struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Reason    string    `json:"reason"`
	Context   string    `json:"context"`
	Category  Category  `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationResult is the outcome of structural ticket validation.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}
