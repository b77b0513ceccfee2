package model

import (
	"time"
)

// TicketStatus represents the current stage of a ticket in the triage pipeline.
type TicketStatus string

const (
	StatusPendingValidation TicketStatus = "pending_validation"
	StatusRejected          TicketStatus = "rejected"
	StatusScored            TicketStatus = "scored"
	StatusClassified        TicketStatus = "classified"
	StatusRetrieved         TicketStatus = "retrieved"
	StatusEvaluated         TicketStatus = "evaluated"
	StatusAnswered          TicketStatus = "answered"
	StatusAwaitingFeedback  TicketStatus = "awaiting_feedback"
	StatusClosed            TicketStatus = "closed"
	StatusEscalated         TicketStatus = "escalated"
)

// Terminal reports whether a ticket in this status has left the automated
// pipeline. Escalated tickets may later be closed by a human, but the core
// never transitions them further.
func (s TicketStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusClosed, StatusEscalated:
		return true
	}
	return false
}

// Priority buckets a numeric priority score.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priority score thresholds: >=70 high, >=35 medium, below low.
const (
	PriorityHighThreshold   = 70
	PriorityMediumThreshold = 35
)

// PriorityFromScore maps a 0-100 priority score to its bucket.
func PriorityFromScore(score int) Priority {
	switch {
	case score >= PriorityHighThreshold:
		return PriorityHigh
	case score >= PriorityMediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Ticket is the unit of work flowing through every triage stage. Pipeline
// stages mutate it in place.
type Ticket struct {
	ID          string   `json:"id"`
	ClientName  string   `json:"client_name"`
	ClientEmail string   `json:"client_email"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`

	PriorityScore int          `json:"priority_score"`
	Category      Category     `json:"category,omitempty"`
	Status        TicketStatus `json:"status"`
	Attempts      int          `json:"attempts"`

	// Confidence is nil until the evaluator has run.
	Confidence *float64 `json:"confidence,omitempty"`
	Sensitive  bool     `json:"sensitive"`

	// MaskedDescription holds the PII-masked copy of Description once the
	// evaluator has scanned it. The original description is never altered.
	MaskedDescription string `json:"masked_description,omitempty"`

	// Snippets are evidence previews attached for audit.
	Snippets          []string `json:"snippets,omitempty"`
	EscalationContext string   `json:"escalation_context,omitempty"`

	// Clarifications accumulates client feedback text appended on each retry.
	Clarifications []string `json:"clarifications,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveDescription returns the description with any client clarifications
// appended. Classification and retrieval on a retry consume this, so the
// clarification influences both.
func (t *Ticket) EffectiveDescription() string {
	out := t.Description
	for _, c := range t.Clarifications {
		if c == "" {
			continue
		}
		out += "\n\nPrécision du client: " + c
	}
	return out
}

// TriageStatus is the outcome category of a full pipeline invocation.
type TriageStatus string

const (
	TriageAnswered  TriageStatus = "answered"
	TriageEscalated TriageStatus = "escalated"
	TriageRejected  TriageStatus = "rejected"
)

// TriageResult is the contract returned by ProcessTicket to the API layer.
type TriageResult struct {
	TicketID          string       `json:"ticket_id"`
	Status            TriageStatus `json:"status"`
	Message           string       `json:"message"`
	Confidence        float64      `json:"confidence"`
	Reasons           []string     `json:"reasons,omitempty"`
	EscalationContext string       `json:"escalation_context,omitempty"`
}

// Feedback is the client's reaction to an automated answer.
type Feedback struct {
	Satisfied     bool   `json:"satisfied"`
	Clarification string `json:"clarification,omitempty"`
}

// FeedbackAction is the routing decision taken on client feedback.
type FeedbackAction string

const (
	ActionClose    FeedbackAction = "close"
	ActionRetry    FeedbackAction = "retry"
	ActionEscalate FeedbackAction = "escalate"
)

// FeedbackOutcome is the contract returned by HandleFeedback.
type FeedbackOutcome struct {
	Action   FeedbackAction `json:"action"`
	Attempts int            `json:"attempts"`
	Message  string         `json:"message"`
}
