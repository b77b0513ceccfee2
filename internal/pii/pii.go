// Package pii detects and masks personally identifiable information in
// ticket text. Detection is unconditional in the pipeline: it runs on every
// evaluation regardless of confidence, and any hit forces escalation.
package pii

import (
	"regexp"

	"go.uber.org/zap"
)

// Kind identifies a class of detected PII.
type Kind string

const (
	KindEmail      Kind = "email"
	KindCardNumber Kind = "card_number"
	KindLongNumber Kind = "long_number"
)

// Placeholders substituted into the masked copy. They contain no digits or
// @-signs, so masking an already-masked string changes nothing.
const (
	emailPlaceholder = "[EMAIL MASQUÉ]"
	cardPlaceholder  = "[CARTE MASQUÉE]"
	numPlaceholder   = "[NUMÉRO MASQUÉ]"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Major card-number shapes: Visa, Mastercard, Amex, Discover, with
	// optional space or dash separators between groups.
	cardPattern = regexp.MustCompile(`\b(?:4\d{3}|5[1-5]\d{2}|3[47]\d{2}|6(?:011|5\d{2}))[ \-]?\d{4}[ \-]?\d{4}[ \-]?\d{1,4}\b`)

	// Any run of 10 or more consecutive digits (phone numbers, account
	// numbers, ungrouped card numbers).
	longNumberPattern = regexp.MustCompile(`\d{10,}`)
)

// Result is the outcome of a PII scan.
type Result struct {
	Sensitive bool
	Kinds     []Kind
	// Masked is the input with every detected value replaced by a
	// placeholder. Text outside the matches is retained verbatim.
	Masked string
}

// Scan detects PII in text and produces a masked copy. Pure and idempotent:
// scanning a masked string detects nothing and returns it unchanged.
func Scan(text string) Result {
	res := Result{Masked: text}

	if emailPattern.MatchString(res.Masked) {
		res.Kinds = append(res.Kinds, KindEmail)
		res.Masked = emailPattern.ReplaceAllString(res.Masked, emailPlaceholder)
	}
	if cardPattern.MatchString(res.Masked) {
		res.Kinds = append(res.Kinds, KindCardNumber)
		res.Masked = cardPattern.ReplaceAllString(res.Masked, cardPlaceholder)
	}
	if longNumberPattern.MatchString(res.Masked) {
		res.Kinds = append(res.Kinds, KindLongNumber)
		res.Masked = longNumberPattern.ReplaceAllString(res.Masked, numPlaceholder)
	}

	res.Sensitive = len(res.Kinds) > 0
	return res
}

// Mask returns the masked copy of text.
func Mask(text string) string {
	return Scan(text).Masked
}

// Audit emits the structured audit event for a positive scan. The masked copy
// is logged, never the original.
func Audit(ticketID string, res Result) {
	if !res.Sensitive {
		return
	}
	kinds := make([]string, len(res.Kinds))
	for i, k := range res.Kinds {
		kinds[i] = string(k)
	}
	zap.L().Warn("pii: sensitive data detected",
		zap.String("ticket_id", ticketID),
		zap.Strings("kinds", kinds),
		zap.Int("masked_len", len(res.Masked)),
	)
}
