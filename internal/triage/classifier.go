package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/config"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/pkg/llm"
)

const classifySystemPrompt = `Tu es un classificateur de tickets de support. Classe le ticket dans exactement une catégorie parmi: technique, facturation, authentification, feature_request, autre. Réponds uniquement avec un objet JSON valide:
{"primary_category": "<catégorie>", "severity": "<low|medium|high|critical>", "treatment": "<standard|priority|urgent>", "category_confidence": <0.0-1.0>, "severity_confidence": <0.0-1.0>, "treatment_confidence": <0.0-1.0>, "skills_confidence": <0.0-1.0>, "required_skills": ["<compétence>", ...], "reasoning": "<une phrase>"}`

const classifyUserPrompt = `Sujet: %s
Score de priorité: %d

Description:
%s`

// Classifier produces a ClassificationResult for every ticket. The LLM path
// is primary; any capability failure (transport error, timeout, malformed
// response) degrades to the keyword heuristic rather than surfacing an error.
type Classifier struct {
	client llm.Client
	cfg    config.AnthropicConfig
}

// NewClassifier creates a classifier. client may be nil for heuristic-only
// deployments.
func NewClassifier(client llm.Client, cfg config.AnthropicConfig) *Classifier {
	return &Classifier{client: client, cfg: cfg}
}

// Classify never returns an error: the heuristic fallback is total.
func (c *Classifier) Classify(ctx context.Context, t *model.Ticket) model.ClassificationResult {
	if c.client == nil {
		return classifyHeuristic(t)
	}

	resp, err := c.client.CreateMessage(ctx, llm.MessageRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    classifySystemPrompt,
		Messages: []llm.Message{{
			Role:    "user",
			Content: fmt.Sprintf(classifyUserPrompt, t.Subject, t.PriorityScore, t.EffectiveDescription()),
		}},
	})
	if err != nil {
		zap.L().Warn("classify: llm call failed, using heuristic fallback",
			zap.String("ticket_id", t.ID), zap.Error(err))
		return classifyHeuristic(t)
	}

	result, err := parseClassification(llm.ExtractText(resp))
	if err != nil {
		zap.L().Warn("classify: unparseable llm response, using heuristic fallback",
			zap.String("ticket_id", t.ID), zap.Error(err))
		return classifyHeuristic(t)
	}

	zap.L().Debug("classify: llm classification",
		zap.String("ticket_id", t.ID),
		zap.String("category", string(result.PrimaryCategory)),
		zap.Float64("overall_confidence", result.OverallConfidence()),
	)
	return result
}

// classificationWire is the strict response shape expected from the model.
type classificationWire struct {
	PrimaryCategory     string   `json:"primary_category"`
	Severity            string   `json:"severity"`
	Treatment           string   `json:"treatment"`
	CategoryConfidence  *float64 `json:"category_confidence"`
	SeverityConfidence  *float64 `json:"severity_confidence"`
	TreatmentConfidence *float64 `json:"treatment_confidence"`
	SkillsConfidence    *float64 `json:"skills_confidence"`
	RequiredSkills      []string `json:"required_skills"`
	Reasoning           string   `json:"reasoning"`
}

// parseClassification validates the response against the expected schema.
// Any shape mismatch is a capability failure, not a crash.
func parseClassification(raw string) (model.ClassificationResult, error) {
	var zero model.ClassificationResult

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var wire classificationWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return zero, fmt.Errorf("classify: decode response: %w", err)
	}

	category := model.Category(wire.PrimaryCategory)
	if !validCategory(category) {
		return zero, fmt.Errorf("classify: unknown category %q", wire.PrimaryCategory)
	}

	severity := model.Severity(wire.Severity)
	switch severity {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical:
	default:
		return zero, fmt.Errorf("classify: unknown severity %q", wire.Severity)
	}

	treatment := model.Treatment(wire.Treatment)
	switch treatment {
	case model.TreatmentStandard, model.TreatmentPriority, model.TreatmentUrgent:
	default:
		return zero, fmt.Errorf("classify: unknown treatment %q", wire.Treatment)
	}

	confidences := map[string]*float64{
		"category_confidence":  wire.CategoryConfidence,
		"severity_confidence":  wire.SeverityConfidence,
		"treatment_confidence": wire.TreatmentConfidence,
		"skills_confidence":    wire.SkillsConfidence,
	}
	for name, v := range confidences {
		if v == nil {
			return zero, fmt.Errorf("classify: missing field %s", name)
		}
		if *v < 0 || *v > 1 {
			return zero, fmt.Errorf("classify: %s out of range: %f", name, *v)
		}
	}

	return model.ClassificationResult{
		PrimaryCategory:     category,
		Severity:            severity,
		Treatment:           treatment,
		CategoryConfidence:  *wire.CategoryConfidence,
		SeverityConfidence:  *wire.SeverityConfidence,
		TreatmentConfidence: *wire.TreatmentConfidence,
		SkillsConfidence:    *wire.SkillsConfidence,
		RequiredSkills:      wire.RequiredSkills,
		Reasoning:           wire.Reasoning,
		Provenance:          model.ProvenanceLLM,
	}, nil
}

func validCategory(c model.Category) bool {
	for _, known := range model.AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// categoryKeywords drives the heuristic fallback. Matched on accent-folded
// lowercased text; the category with the most hits wins.
var categoryKeywords = map[model.Category][]string{
	model.CategoryTechnique: {
		"erreur", "bug", "plantage", "crash", "lent", "lenteur", "timeout",
		"exception", "500", "404", "api", "serveur", "écran blanc",
	},
	model.CategoryFacturation: {
		"facture", "facturation", "paiement", "prélèvement", "remboursement",
		"abonnement", "tarif", "carte bancaire", "tva", "devis",
	},
	model.CategoryAuthentification: {
		"connexion", "connecter", "mot de passe", "identifiant", "compte bloqué",
		"login", "authentification", "2fa", "double authentification", "session",
	},
	model.CategoryFeatureRequest: {
		"fonctionnalité", "suggestion", "amélioration", "serait bien",
		"pourriez-vous ajouter", "demande de fonctionnalité", "évolution",
	},
}

var severityKeywords = []string{
	"urgent", "critique", "bloquant", "production", "panne",
	"tous les utilisateurs", "perte de données",
}

var escalationKeywords = []string{
	"inadmissible", "inacceptable", "avocat", "résiliation", "juridique",
}

// Treatment thresholds for the heuristic path.
const (
	treatmentUrgentScore   = 80
	treatmentPriorityScore = 60
)

// classifyHeuristic is the deterministic fallback: keyword-table category
// scoring, severity from urgency markers, treatment from the priority score.
func classifyHeuristic(t *model.Ticket) model.ClassificationResult {
	text := kb.Normalize(t.Subject + " " + t.EffectiveDescription())

	best := model.CategoryAutre
	bestHits := 0
	for _, category := range model.AllCategories() {
		var hits int
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(text, kb.Normalize(kw)) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = category, hits
		}
	}

	severity := model.SeverityLow
	var severityHits int
	for _, kw := range severityKeywords {
		if strings.Contains(text, kb.Normalize(kw)) {
			severityHits++
		}
	}
	switch {
	case severityHits >= 3:
		severity = model.SeverityCritical
	case severityHits == 2:
		severity = model.SeverityHigh
	case severityHits == 1:
		severity = model.SeverityMedium
	}

	treatment := model.TreatmentStandard
	switch {
	case t.PriorityScore >= treatmentUrgentScore || matchesAny(text, escalationKeywords):
		treatment = model.TreatmentUrgent
	case t.PriorityScore >= treatmentPriorityScore:
		treatment = model.TreatmentPriority
	}

	// Heuristic confidence scales with keyword evidence and never reaches
	// LLM-level certainty.
	categoryConfidence := 0.3 + 0.15*float64(bestHits)
	if categoryConfidence > 0.75 {
		categoryConfidence = 0.75
	}

	return model.ClassificationResult{
		PrimaryCategory:     best,
		Severity:            severity,
		Treatment:           treatment,
		CategoryConfidence:  categoryConfidence,
		SeverityConfidence:  0.5,
		TreatmentConfidence: 0.6,
		SkillsConfidence:    0.3,
		RequiredSkills:      heuristicSkills(best),
		Reasoning:           fmt.Sprintf("classification heuristique: %d mot(s)-clé(s) pour %s", bestHits, best),
		Provenance:          model.ProvenanceHeuristic,
	}
}

func heuristicSkills(c model.Category) []string {
	switch c {
	case model.CategoryTechnique:
		return []string{"support_technique"}
	case model.CategoryFacturation:
		return []string{"comptabilité"}
	case model.CategoryAuthentification:
		return []string{"sécurité"}
	case model.CategoryFeatureRequest:
		return []string{"produit"}
	default:
		return []string{"support_général"}
	}
}
