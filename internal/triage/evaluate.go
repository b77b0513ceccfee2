package triage

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/config"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/pii"
)

// Confidence baseline bounds. The priority-derived baseline never exceeds
// 100/divisor even for a maximum-priority ticket.
const (
	baselineFloor = 0.2
	baselineCeil  = 0.9
)

// negativeToneMarkers are the lexical signals of an unhappy client, matched
// on accent-folded lowercased text.
var negativeToneMarkers = []string{
	"inadmissible", "inacceptable", "scandaleux", "honteux", "lamentable",
	"furieux", "furieuse", "en colère", "mécontent", "déçu", "décue",
	"ras le bol", "marre", "nul", "catastrophique",
}

// Evaluator fuses priority, evidence, tone, and PII detection into the
// escalate/continue decision.
type Evaluator struct {
	cfg config.EvaluatorConfig
}

// NewEvaluator creates an evaluator. Zero-valued config fields fall back to
// the historical constants.
func NewEvaluator(cfg config.EvaluatorConfig) *Evaluator {
	if cfg.ConfidenceBaselineDivisor <= 0 {
		cfg.ConfidenceBaselineDivisor = 120
	}
	if cfg.EscalationThreshold <= 0 {
		cfg.EscalationThreshold = 0.6
	}
	if cfg.SnippetBonus <= 0 {
		cfg.SnippetBonus = 0.2
	}
	if cfg.NegativeTonePenalty <= 0 {
		cfg.NegativeTonePenalty = 0.15
	}
	return &Evaluator{cfg: cfg}
}

// Evaluate computes the routing decision for a ticket. The PII scan runs
// unconditionally: a sensitive ticket escalates regardless of confidence,
// and the masked copy plus audit event are produced either way.
func (e *Evaluator) Evaluate(t *model.Ticket, meta model.RetrievalMetadata) model.Evaluation {
	confidence := clamp(float64(t.PriorityScore)/e.cfg.ConfidenceBaselineDivisor, baselineFloor, baselineCeil)

	if len(t.Snippets) > 0 {
		confidence += e.cfg.SnippetBonus
	}

	negative := matchesAny(kb.Normalize(t.Description), negativeToneMarkers)
	if negative {
		confidence -= e.cfg.NegativeTonePenalty
	}

	confidence = clamp(confidence, 0, 1)

	scan := pii.Scan(t.Description)
	if scan.Sensitive {
		pii.Audit(t.ID, scan)
	}

	eval := model.Evaluation{
		Confidence:        confidence,
		Sensitive:         scan.Sensitive,
		MaskedDescription: scan.Masked,
	}

	if confidence < e.cfg.EscalationThreshold {
		eval.Reasons = append(eval.Reasons, model.ReasonLowConfidence)
	}
	if scan.Sensitive {
		eval.Reasons = append(eval.Reasons, model.ReasonSensitiveData)
	}
	if negative {
		eval.Reasons = append(eval.Reasons, model.ReasonNegativeTone)
	}

	eval.Escalate = confidence < e.cfg.EscalationThreshold || scan.Sensitive
	if eval.Escalate {
		eval.EscalationContext = buildEscalationContext(t, eval, meta)
	}

	zap.L().Debug("evaluate: decision",
		zap.String("ticket_id", t.ID),
		zap.Float64("confidence", confidence),
		zap.Bool("escalate", eval.Escalate),
		zap.Bool("sensitive", scan.Sensitive),
	)
	return eval
}

// buildEscalationContext snapshots everything a human reviewer needs. Every
// reason that fired appears, not just the first.
func buildEscalationContext(t *model.Ticket, eval model.Evaluation, meta model.RetrievalMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket %s", t.ID)
	if t.Category != "" {
		fmt.Fprintf(&b, " | catégorie: %s", t.Category)
	}
	fmt.Fprintf(&b, " | priorité: %d (%s)", t.PriorityScore, model.PriorityFromScore(t.PriorityScore))
	fmt.Fprintf(&b, " | confiance: %.2f", eval.Confidence)

	reasons := make([]string, len(eval.Reasons))
	for i, r := range eval.Reasons {
		reasons[i] = string(r)
	}
	fmt.Fprintf(&b, " | raisons: %s", strings.Join(reasons, ", "))

	if meta.ChunkCount > 0 {
		fmt.Fprintf(&b, " | similarité moyenne KB: %.2f (confiant: %t)", meta.MeanSimilarity, meta.KBConfident)
	} else {
		b.WriteString(" | aucune évidence KB")
	}
	if meta.KBLimitReached {
		b.WriteString(" | tentatives KB épuisées")
	}

	for _, snippet := range t.Snippets {
		if runes := []rune(snippet); len(runes) > 120 {
			snippet = string(runes[:120]) + "…"
		}
		fmt.Fprintf(&b, "\nÉvidence: %s", snippet)
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
