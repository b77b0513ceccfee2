package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

func TestFeedbackSatisfiedCloses(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{ID: "t-1", Status: model.StatusAwaitingFeedback, Attempts: 1}
	outcome, err := DecideFeedback(ticket, model.Feedback{Satisfied: true}, 2)
	require.NoError(t, err)

	assert.Equal(t, model.ActionClose, outcome.Action)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, model.StatusClosed, ticket.Status)
}

func TestFeedbackUnsatisfiedRetriesBelowLimit(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{ID: "t-2", Status: model.StatusAwaitingFeedback, Attempts: 1}
	outcome, err := DecideFeedback(ticket, model.Feedback{
		Satisfied:     false,
		Clarification: "Le problème ne survient que sur mobile.",
	}, 2)
	require.NoError(t, err)

	assert.Equal(t, model.ActionRetry, outcome.Action)
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, 2, ticket.Attempts)
	require.Len(t, ticket.Clarifications, 1)
	assert.Contains(t, ticket.EffectiveDescription(), "Le problème ne survient que sur mobile.")
}

func TestFeedbackUnsatisfiedEscalatesAtLimit(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{ID: "t-3", Status: model.StatusAwaitingFeedback, Attempts: 2}
	outcome, err := DecideFeedback(ticket, model.Feedback{Satisfied: false}, 2)
	require.NoError(t, err)

	assert.Equal(t, model.ActionEscalate, outcome.Action)
	assert.Equal(t, 2, outcome.Attempts)
}

func TestFeedbackAttemptsNeverExceedLimit(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{ID: "t-4", Status: model.StatusAwaitingFeedback}
	for i := 0; i < 5; i++ {
		outcome, err := DecideFeedback(ticket, model.Feedback{Satisfied: false}, 2)
		require.NoError(t, err)
		assert.LessOrEqual(t, outcome.Attempts, 2)
		if outcome.Action == model.ActionEscalate {
			break
		}
	}
	assert.Equal(t, 2, ticket.Attempts)
}

func TestFeedbackOnTerminalTicketIsAnError(t *testing.T) {
	t.Parallel()

	for _, status := range []model.TicketStatus{
		model.StatusRejected,
		model.StatusClosed,
		model.StatusEscalated,
	} {
		ticket := &model.Ticket{ID: "t-5", Status: status}
		_, err := DecideFeedback(ticket, model.Feedback{Satisfied: false}, 2)
		assert.Error(t, err)
		assert.Zero(t, ticket.Attempts, "a terminal ticket must not consume an attempt")
	}
}

func TestFeedbackDefaultsMaxAttempts(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{ID: "t-6", Status: model.StatusAwaitingFeedback, Attempts: 2}
	outcome, err := DecideFeedback(ticket, model.Feedback{Satisfied: false}, 0)
	require.NoError(t, err)
	assert.Equal(t, model.ActionEscalate, outcome.Action)
}
