// Package insight mines escalation records for knowledge-base gaps. It runs
// offline over the audit trail and never feeds back into the live pipeline.
package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// patternThreshold is the per-category escalation count that flags a pattern.
const patternThreshold = 3

// gapMarkers indicate the knowledge base had no answer for the question.
var gapMarkers = []string{
	"aucune évidence", "aucune reponse", "pas de documentation",
	"non couvert", "low_confidence", "tentatives kb épuisées",
}

// hallucinationMarkers indicate the automated answer was wrong rather than
// missing.
var hallucinationMarkers = []string{
	"réponse incorrecte", "réponse erronée", "mauvaise réponse",
	"hors sujet", "hallucination", "attempts_exhausted",
}

// Finding ties a flagged record to its diagnosis.
type Finding struct {
	EscalationID string         `json:"escalation_id"`
	TicketID     string         `json:"ticket_id"`
	Category     model.Category `json:"category,omitempty"`
	Kind         string         `json:"kind"` // "gap" or "hallucination"
}

// Report is the aggregated output of a batch analysis run.
type Report struct {
	TotalEscalations int                    `json:"total_escalations"`
	ByCategory       map[model.Category]int `json:"by_category"`
	Patterns         []model.Category       `json:"patterns,omitempty"`
	Findings         []Finding              `json:"findings,omitempty"`
	Recommendations  []string               `json:"recommendations,omitempty"`
}

// Analyze aggregates escalation records into a report. Pure function over
// its input set.
func Analyze(records []model.EscalationRecord) Report {
	report := Report{
		TotalEscalations: len(records),
		ByCategory:       make(map[model.Category]int),
	}

	for _, rec := range records {
		if rec.Category != "" {
			report.ByCategory[rec.Category]++
		}

		text := kb.Normalize(rec.Reason + " " + rec.Context)
		switch {
		case containsAny(text, gapMarkers):
			report.Findings = append(report.Findings, Finding{
				EscalationID: rec.ID, TicketID: rec.TicketID, Category: rec.Category, Kind: "gap",
			})
		case containsAny(text, hallucinationMarkers):
			report.Findings = append(report.Findings, Finding{
				EscalationID: rec.ID, TicketID: rec.TicketID, Category: rec.Category, Kind: "hallucination",
			})
		}
	}

	for _, category := range model.AllCategories() {
		if report.ByCategory[category] >= patternThreshold {
			report.Patterns = append(report.Patterns, category)
		}
	}

	report.Recommendations = recommend(report)
	return report
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, kb.Normalize(m)) {
			return true
		}
	}
	return false
}

// recommend turns the aggregates into actionable suggestions, one per
// pattern plus one per diagnosis kind observed.
func recommend(report Report) []string {
	var out []string

	for _, category := range report.Patterns {
		out = append(out, fmt.Sprintf(
			"Catégorie %s: %d escalades. Enrichir la documentation ou former l'équipe dédiée.",
			category, report.ByCategory[category]))
	}

	counts := map[string]int{}
	for _, f := range report.Findings {
		counts[f.Kind]++
	}
	if n := counts["gap"]; n > 0 {
		out = append(out, fmt.Sprintf(
			"%d escalade(s) sans réponse dans la base de connaissances. Ajouter les articles manquants.", n))
	}
	if n := counts["hallucination"]; n > 0 {
		out = append(out, fmt.Sprintf(
			"%d réponse(s) automatique(s) incorrecte(s). Vérifier les documents sources correspondants.", n))
	}

	sort.Strings(out)
	return out
}
