package triage

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

func TestEscalateCreatesRecordAndMarksTicket(t *testing.T) {
	t.Parallel()

	st := &mockStore{}
	st.On("GetEscalationByTicket", mock.Anything, "t-1").Return(nil, nil)
	st.On("CreateEscalation", mock.Anything, mock.MatchedBy(func(rec model.EscalationRecord) bool {
		return rec.TicketID == "t-1" && rec.ID != "" && rec.Reason == "low_confidence"
	})).Return(nil)

	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	ticket := &model.Ticket{ID: "t-1", Category: model.CategoryTechnique, Status: model.StatusEvaluated}
	rec, err := NewEscalator(st, notifier).Escalate(context.Background(), ticket, "low_confidence", "contexte")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.CategoryTechnique, rec.Category)
	assert.Equal(t, model.StatusEscalated, ticket.Status)
	assert.Equal(t, "contexte", ticket.EscalationContext)
	st.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestEscalateIsIdempotent(t *testing.T) {
	t.Parallel()

	existing := &model.EscalationRecord{ID: "esc-1", TicketID: "t-2", Reason: "sensitive_data"}
	st := &mockStore{}
	st.On("GetEscalationByTicket", mock.Anything, "t-2").Return(existing, nil)

	ticket := &model.Ticket{ID: "t-2", Status: model.StatusEscalated}
	rec, err := NewEscalator(st, nil).Escalate(context.Background(), ticket, "sensitive_data", "nouveau contexte")
	require.NoError(t, err)

	assert.Equal(t, "esc-1", rec.ID)
	assert.Equal(t, model.StatusEscalated, ticket.Status)
	st.AssertNotCalled(t, "CreateEscalation", mock.Anything, mock.Anything)
}

func TestEscalateNotificationFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	st := &mockStore{}
	st.On("GetEscalationByTicket", mock.Anything, "t-3").Return(nil, nil)
	st.On("CreateEscalation", mock.Anything, mock.Anything).Return(nil)

	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(eris.New("smtp down"))

	ticket := &model.Ticket{ID: "t-3", Status: model.StatusEvaluated}
	rec, err := NewEscalator(st, notifier).Escalate(context.Background(), ticket, "negative_tone", "ctx")
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, model.StatusEscalated, ticket.Status)
}

func TestEscalateStoreFailureSurfaces(t *testing.T) {
	t.Parallel()

	st := &mockStore{}
	st.On("GetEscalationByTicket", mock.Anything, "t-4").Return(nil, nil)
	st.On("CreateEscalation", mock.Anything, mock.Anything).Return(eris.New("db unavailable"))

	ticket := &model.Ticket{ID: "t-4", Status: model.StatusEvaluated}
	_, err := NewEscalator(st, nil).Escalate(context.Background(), ticket, "low_confidence", "ctx")
	assert.Error(t, err)
}
