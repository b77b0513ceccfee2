package triage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/config"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/pkg/llm"
)

const answerSystemPrompt = `Tu es un agent de support client. À partir du contexte documentaire fourni, rédige une réponse courte, factuelle et polie en français. Ne mentionne jamais le contexte lui-même. Si le contexte ne couvre pas la question, dis-le honnêtement.`

const answerUserPrompt = `Question du client:
%s

Contexte documentaire:
%s`

// nextStepsByCategory holds the category-specific closing of the response.
var nextStepsByCategory = map[model.Category]string{
	model.CategoryTechnique:   "Prochaines étapes : si le problème persiste après ces manipulations, répondez à ce message avec le message d'erreur exact et l'heure de l'incident.",
	model.CategoryFacturation: "Prochaines étapes : vérifiez votre espace facturation ; si une anomalie subsiste sur votre prochaine facture, répondez à ce message avec la référence concernée.",
}

const nextStepsDefault = "Prochaines étapes : si cette réponse ne résout pas votre demande, répondez à ce message avec toute précision utile."

// Composer renders the final client-facing message. Formatting is
// deterministic; only the proposed-solution prose delegates to the answer
// generation capability, with the top retrieved chunk as fallback.
type Composer struct {
	client llm.Client
	aiCfg  config.AnthropicConfig
}

// NewComposer creates a composer. client may be nil; composition then always
// uses retrieved evidence directly.
func NewComposer(client llm.Client, aiCfg config.AnthropicConfig) *Composer {
	return &Composer{client: client, aiCfg: aiCfg}
}

// Compose builds the answer message. It cannot fail: missing inputs degrade
// to the ticket's own description.
func (c *Composer) Compose(ctx context.Context, t *model.Ticket, contextText string, topChunk string, confidence float64) string {
	solution := c.generate(ctx, t, contextText)
	if solution == "" {
		solution = topChunk
	}
	if solution == "" {
		solution = t.Description
	}

	name := strings.TrimSpace(t.ClientName)
	if name == "" {
		name = "client"
	}

	nextSteps, ok := nextStepsByCategory[t.Category]
	if !ok {
		nextSteps = nextStepsDefault
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Bonjour %s,\n\n", name)
	fmt.Fprintf(&b, "Concernant votre demande « %s » :\n\n", strings.TrimSpace(t.Subject))
	b.WriteString(strings.TrimSpace(solution))
	b.WriteString("\n\n")
	b.WriteString(nextSteps)
	fmt.Fprintf(&b, "\n\nIndice de confiance de cette réponse automatique : %.0f%%.", confidence*100)
	return b.String()
}

// generate asks the model for prose grounded in the retrieved context.
// Any failure returns "" so the caller falls back to raw evidence.
func (c *Composer) generate(ctx context.Context, t *model.Ticket, contextText string) string {
	if c.client == nil || strings.TrimSpace(contextText) == "" {
		return ""
	}

	resp, err := c.client.CreateMessage(ctx, llm.MessageRequest{
		Model:     c.aiCfg.Model,
		MaxTokens: c.aiCfg.MaxTokens,
		System:    answerSystemPrompt,
		Messages: []llm.Message{{
			Role:    "user",
			Content: fmt.Sprintf(answerUserPrompt, t.EffectiveDescription(), contextText),
		}},
	})
	if err != nil {
		zap.L().Warn("compose: answer generation failed, using retrieved evidence",
			zap.String("ticket_id", t.ID), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(llm.ExtractText(resp))
}
