package triage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/config"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/store"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/pkg/llm"
)

// Pipeline orchestrates the triage stages for a single ticket: validate,
// score, classify, retrieve, evaluate, compose. Stages run sequentially;
// separate tickets run independently and share only the read-only KB index.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	classifier *Classifier
	retriever  *kb.Retriever
	evaluator  *Evaluator
	composer   *Composer
	escalator  *Escalator
}

// New creates a pipeline with all dependencies. client may be nil for a
// heuristic-only deployment.
func New(cfg *config.Config, st store.Store, client llm.Client, retriever *kb.Retriever, notifier Notifier) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		classifier: NewClassifier(client, cfg.Anthropic),
		retriever:  retriever,
		evaluator:  NewEvaluator(cfg.Evaluator),
		composer:   NewComposer(client, cfg.Anthropic),
		escalator:  NewEscalator(st, notifier),
	}
}

// Intake registers a new ticket and runs it through the pipeline.
func (p *Pipeline) Intake(ctx context.Context, t *model.Ticket) (*model.TriageResult, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Status = model.StatusPendingValidation

	if err := p.store.CreateTicket(ctx, t); err != nil {
		return nil, eris.Wrap(err, "pipeline: create ticket")
	}
	return p.ProcessTicket(ctx, t)
}

// ProcessTicket runs the full triage pipeline. Every path produces a
// TriageResult; the failure mode is escalation to a human, never a dropped
// request.
func (p *Pipeline) ProcessTicket(ctx context.Context, t *model.Ticket) (*model.TriageResult, error) {
	log := zap.L().With(zap.String("ticket_id", t.ID))
	log.Info("pipeline: processing ticket", zap.String("subject", t.Subject))

	// Stage 1: validation. Rejection is terminal and consumes no attempt.
	var validation model.ValidationResult
	trackStage(log, "validate", func() {
		validation = Validate(t)
	})
	if !validation.Valid {
		t.Status = model.StatusRejected
		p.save(ctx, log, t)
		// The machine-readable tag leads; the validator's diagnostics follow.
		return &model.TriageResult{
			TicketID: t.ID,
			Status:   model.TriageRejected,
			Message:  "Ticket rejeté: " + strings.Join(validation.Reasons, "; "),
			Reasons:  append([]string{string(model.ReasonValidationFailed)}, validation.Reasons...),
		}, nil
	}

	// Stage 2: urgency scoring.
	trackStage(log, "score", func() {
		Score(t)
	})
	t.Status = model.StatusScored
	p.save(ctx, log, t)

	return p.processFromClassification(ctx, t)
}

// processFromClassification runs stages 3-6. Feedback retries re-enter here:
// validation and scoring are reused, classification and retrieval are
// recomputed against the clarified description.
func (p *Pipeline) processFromClassification(ctx context.Context, t *model.Ticket) (*model.TriageResult, error) {
	log := zap.L().With(zap.String("ticket_id", t.ID))

	// Stage 3: classification.
	var classification model.ClassificationResult
	trackStage(log, "classify", func() {
		classification = p.classifier.Classify(ctx, t)
	})
	t.Category = classification.PrimaryCategory
	t.Status = model.StatusClassified
	p.save(ctx, log, t)

	// Stage 4: retrieval and context optimization. Attempt is 1-based.
	var optimized kb.OptimizedContext
	var meta model.RetrievalMetadata
	trackStage(log, "retrieve", func() {
		query := t.Subject + " " + t.EffectiveDescription()
		chunks, m := p.retriever.Retrieve(ctx, query, kb.Options{
			Category: t.Category,
			Keywords: t.Keywords,
			Attempt:  t.Attempts + 1,
		})
		meta = m
		optimized = kb.OptimizeContext(chunks, query,
			p.cfg.Retrieval.ContextTokenBudget,
			kb.ParseMergeStrategy(p.cfg.Retrieval.MergeStrategy))
	})

	// Evidence snippets are attached only when retrieval trusts them; the
	// evaluator's snippet bonus keys off their presence.
	t.Snippets = nil
	if meta.KBConfident {
		for _, sel := range optimized.Selected {
			t.Snippets = append(t.Snippets, sel.Chunk.Text)
		}
	}
	t.Status = model.StatusRetrieved
	p.save(ctx, log, t)

	// Stage 5: evaluation.
	var eval model.Evaluation
	trackStage(log, "evaluate", func() {
		eval = p.evaluator.Evaluate(t, meta)
	})
	confidence := eval.Confidence
	t.Confidence = &confidence
	t.Sensitive = eval.Sensitive
	t.MaskedDescription = eval.MaskedDescription
	t.Status = model.StatusEvaluated
	p.save(ctx, log, t)

	if eval.Escalate {
		reasons := make([]string, len(eval.Reasons))
		for i, r := range eval.Reasons {
			reasons[i] = string(r)
		}
		if _, err := p.escalator.Escalate(ctx, t, strings.Join(reasons, ", "), eval.EscalationContext); err != nil {
			return nil, eris.Wrap(err, "pipeline: escalate")
		}
		p.save(ctx, log, t)
		return &model.TriageResult{
			TicketID:          t.ID,
			Status:            model.TriageEscalated,
			Message:           "Ticket transmis à un agent humain.",
			Confidence:        eval.Confidence,
			Reasons:           reasons,
			EscalationContext: eval.EscalationContext,
		}, nil
	}

	// Stage 6: response composition.
	var message string
	trackStage(log, "compose", func() {
		var topChunk string
		if len(optimized.Selected) > 0 {
			topChunk = optimized.Selected[0].Chunk.Text
		}
		message = p.composer.Compose(ctx, t, optimized.Text, topChunk, eval.Confidence)
	})
	t.Status = model.StatusAwaitingFeedback
	p.save(ctx, log, t)

	return &model.TriageResult{
		TicketID:   t.ID,
		Status:     model.TriageAnswered,
		Message:    message,
		Confidence: eval.Confidence,
	}, nil
}

// HandleFeedback applies client feedback to an answered ticket. A retry
// re-enters the pipeline at classification with the clarification folded
// into the description.
func (p *Pipeline) HandleFeedback(ctx context.Context, ticketID string, fb model.Feedback) (*model.FeedbackOutcome, error) {
	t, err := p.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load ticket for feedback")
	}

	outcome, err := DecideFeedback(t, fb, p.cfg.Feedback.MaxAttempts)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("ticket_id", t.ID))
	switch outcome.Action {
	case model.ActionClose:
		p.save(ctx, log, t)

	case model.ActionRetry:
		p.save(ctx, log, t)
		if _, err := p.processFromClassification(ctx, t); err != nil {
			return nil, err
		}

	case model.ActionEscalate:
		if _, err := p.escalator.Escalate(ctx, t, string(model.ReasonAttemptsExhausted), t.EscalationContext); err != nil {
			return nil, eris.Wrap(err, "pipeline: escalate after feedback")
		}
		p.save(ctx, log, t)
	}

	return &outcome, nil
}

// save persists the ticket's current state. Persistence failures are logged
// rather than aborting triage: the in-memory pipeline state stays
// authoritative for the rest of the invocation.
func (p *Pipeline) save(ctx context.Context, log *zap.Logger, t *model.Ticket) {
	t.UpdatedAt = time.Now().UTC()
	if err := p.store.UpdateTicket(ctx, t); err != nil {
		log.Warn("pipeline: failed to persist ticket", zap.Error(err))
	}
}

// trackStage times a stage and logs its completion.
func trackStage(log *zap.Logger, name string, fn func()) {
	start := time.Now()
	fn()
	log.Info("pipeline: stage complete",
		zap.String("stage", name),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}
