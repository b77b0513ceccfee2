package triage

import (
	"strings"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Priority score buckets. Each bucket contributes at most once.
const (
	scoreBase       = 10
	urgencyBonus    = 40
	recurrenceBonus = 20
	productionBonus = 30
)

// Keyword buckets are matched on the accent-folded, lowercased description,
// so "URGENT" and "récurrent" both hit.
var (
	urgencyKeywords = []string{
		"urgent", "urgence", "critique", "immédiat", "immediatement",
		"bloquant", "bloqué", "asap", "au plus vite", "grave",
	}
	recurrenceKeywords = []string{
		"encore", "à nouveau", "de nouveau", "toujours", "récurrent",
		"recurrent", "répète", "repete", "plusieurs fois", "chaque fois",
		"systématiquement",
	}
	productionKeywords = []string{
		"production", "prod", "clients impactés", "tous les utilisateurs",
		"panne", "indisponible", "hors service", "site down", "plus rien ne marche",
	}
)

// ScoreResult pairs the numeric score with its priority bucket.
type ScoreResult struct {
	Score    int            `json:"score"`
	Priority model.Priority `json:"priority"`
}

// Score runs the additive urgency heuristic over the description and writes
// the result onto the ticket.
func Score(t *model.Ticket) ScoreResult {
	text := kb.Normalize(t.Subject + " " + t.EffectiveDescription())

	score := scoreBase
	if matchesAny(text, urgencyKeywords) {
		score += urgencyBonus
	}
	if matchesAny(text, recurrenceKeywords) {
		score += recurrenceBonus
	}
	if matchesAny(text, productionKeywords) {
		score += productionBonus
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	t.PriorityScore = score
	return ScoreResult{Score: score, Priority: model.PriorityFromScore(score)}
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kb.Normalize(kw)) {
			return true
		}
	}
	return false
}
