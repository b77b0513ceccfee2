package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/config"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/kb"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/store"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/triage"
)

func serveTestConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{Model: "test-model", MaxTokens: 1024},
		Retrieval: config.RetrievalConfig{
			TopK:                  5,
			ScoreThreshold:        0.40,
			KBConfidenceThreshold: 0.70,
			MaxRetrievalAttempts:  2,
			HybridBoost:           true,
			ContextTokenBudget:    2000,
			MergeStrategy:         "structured",
		},
		Evaluator: config.EvaluatorConfig{
			ConfidenceBaselineDivisor: 120,
			EscalationThreshold:       0.6,
			SnippetBonus:              0.2,
			NegativeTonePenalty:       0.15,
		},
		Feedback: config.FeedbackConfig{MaxAttempts: 2},
	}
}

// newServeRouter builds a router over a file-backed SQLite store and a
// heuristic-only pipeline, mirroring a deployment without an API key.
func newServeRouter(t *testing.T) chi.Router {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "doxa.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	idx := kb.NewIndex()
	idx.SwapLexical([]kb.Chunk{
		{ID: "kb-auth", Text: "Pour réinitialiser un mot de passe, utiliser le lien de connexion oublié.", Category: model.CategoryAuthentification},
		{ID: "kb-tech", Text: "En cas d'erreur serveur en production, redémarrer le service applicatif.", Category: model.CategoryTechnique},
	})

	cfg := serveTestConfig()
	retriever := kb.NewRetriever(idx, nil, cfg.Retrieval)
	env := &triageEnv{
		Store:     st,
		Index:     idx,
		Retriever: retriever,
		Pipeline:  triage.New(cfg, st, nil, retriever, nil),
		Escalator: triage.NewEscalator(st, nil),
	}

	pollCfg := triage.PollConfig{Interval: 10 * time.Millisecond, MaxAttempts: 50}
	return buildRouter(context.Background(), env, pollCfg)
}

func postJSON(t *testing.T, router chi.Router, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// submitTicket posts a ticket and waits until the asynchronous run settles,
// returning the ticket id and its settled state.
func submitTicket(t *testing.T, router chi.Router, payload map[string]any) (string, model.Ticket) {
	t.Helper()

	rr := postJSON(t, router, "/tickets", payload)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))
	require.Equal(t, "accepted", accepted["status"])
	require.NotEmpty(t, accepted["ticket_id"])

	var ticket model.Ticket
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/tickets/"+accepted["ticket_id"], nil)
		poll := httptest.NewRecorder()
		router.ServeHTTP(poll, req)
		if poll.Code != http.StatusOK {
			return false
		}
		return json.Unmarshal(poll.Body.Bytes(), &ticket) == nil
	}, 2*time.Second, 10*time.Millisecond)

	return accepted["ticket_id"], ticket
}

func TestBuildRouter_Health(t *testing.T) {
	router := newServeRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildRouter_TicketIntakeReturnsHandle(t *testing.T) {
	router := newServeRouter(t)

	id, ticket := submitTicket(t, router, map[string]any{
		"client_name": "M. Ba",
		"subject":     "Erreur serveur",
		"description": "Une erreur serveur bloque la production, c'est urgent pour toute l'équipe.",
	})

	assert.Equal(t, id, ticket.ID)
	assert.Equal(t, model.StatusAwaitingFeedback, ticket.Status)
	require.NotNil(t, ticket.Confidence)
	assert.InDelta(t, 80.0/120, *ticket.Confidence, 1e-9)
}

func TestBuildRouter_TicketIntakeInvalidBody(t *testing.T) {
	router := newServeRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestBuildRouter_UnknownTicketNotFound(t *testing.T) {
	router := newServeRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/tickets/inconnu", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildRouter_FeedbackRoundTrip(t *testing.T) {
	router := newServeRouter(t)

	id, ticket := submitTicket(t, router, map[string]any{
		"client_name": "Mme Diallo",
		"subject":     "Erreur serveur",
		"description": "Une erreur serveur bloque la production, c'est urgent pour toute l'équipe.",
	})
	require.Equal(t, model.StatusAwaitingFeedback, ticket.Status)

	rr := postJSON(t, router, "/tickets/"+id+"/feedback", model.Feedback{Satisfied: true})
	require.Equal(t, http.StatusOK, rr.Code)

	var outcome model.FeedbackOutcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outcome))
	assert.Equal(t, model.ActionClose, outcome.Action)

	req := httptest.NewRequest(http.MethodGet, "/tickets/"+id, nil)
	get := httptest.NewRecorder()
	router.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)

	var closed model.Ticket
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &closed))
	assert.Equal(t, model.StatusClosed, closed.Status)

	// Feedback on a closed ticket is a caller error.
	again := postJSON(t, router, "/tickets/"+id+"/feedback", model.Feedback{Satisfied: false})
	assert.Equal(t, http.StatusConflict, again.Code)
}

func TestBuildRouter_ListTickets(t *testing.T) {
	router := newServeRouter(t)

	id, _ := submitTicket(t, router, map[string]any{
		"subject":     "Erreur serveur",
		"description": "Une erreur serveur bloque la production, c'est urgent pour toute l'équipe.",
	})

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var tickets []model.Ticket
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tickets))
	require.Len(t, tickets, 1)
	assert.Equal(t, id, tickets[0].ID)

	// A status filter that matches nothing yields an empty list.
	req = httptest.NewRequest(http.MethodGet, "/tickets?status=closed", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var filtered []model.Ticket
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &filtered))
	assert.Empty(t, filtered)
}

func TestBuildRouter_EscalationsAndInsights(t *testing.T) {
	router := newServeRouter(t)

	id, ticket := submitTicket(t, router, map[string]any{
		"subject":     "Prélèvement en double",
		"description": "Ma carte 4111 1111 1111 1111 a été débitée deux fois, panne urgente en production.",
	})
	require.Equal(t, model.StatusEscalated, ticket.Status)
	assert.NotContains(t, ticket.MaskedDescription, "4111")

	req := httptest.NewRequest(http.MethodGet, "/escalations", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var recs []model.EscalationRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].TicketID)

	req = httptest.NewRequest(http.MethodGet, "/insights", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var report struct {
		TotalEscalations int `json:"total_escalations"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, 1, report.TotalEscalations)
}
