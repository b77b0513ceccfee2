package model

// EscalationReason names a condition that routed a ticket toward a human.
// Every reason that fired is reported, not just the first.
type EscalationReason string

const (
	ReasonLowConfidence     EscalationReason = "low_confidence"
	ReasonSensitiveData     EscalationReason = "sensitive_data"
	ReasonNegativeTone      EscalationReason = "negative_tone"
	ReasonAttemptsExhausted EscalationReason = "attempts_exhausted"
	ReasonValidationFailed  EscalationReason = "validation_failed"
)

// Evaluation is the fused confidence/escalation decision for a ticket.
type Evaluation struct {
	Confidence        float64            `json:"confidence"`
	Escalate          bool               `json:"escalate"`
	Reasons           []EscalationReason `json:"reasons,omitempty"`
	Sensitive         bool               `json:"sensitive"`
	EscalationContext string             `json:"escalation_context,omitempty"`
	MaskedDescription string             `json:"masked_description,omitempty"`
}

// HasReason reports whether a specific reason fired.
func (e Evaluation) HasReason(r EscalationReason) bool {
	for _, got := range e.Reasons {
		if got == r {
			return true
		}
	}
	return false
}
