package triage

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/mock"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockStore) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *mockStore) UpdateTicket(ctx context.Context, t *model.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockStore) ListTickets(ctx context.Context, filter store.TicketFilter) ([]model.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Ticket), args.Error(1)
}

func (m *mockStore) CreateEscalation(ctx context.Context, rec model.EscalationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) GetEscalationByTicket(ctx context.Context, ticketID string) (*model.EscalationRecord, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EscalationRecord), args.Error(1)
}

func (m *mockStore) ListEscalations(ctx context.Context) ([]model.EscalationRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EscalationRecord), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- In-memory store for end-to-end pipeline tests ---

type memStore struct {
	mu          sync.Mutex
	tickets     map[string]model.Ticket
	escalations []model.EscalationRecord
}

func newMemStore() *memStore {
	return &memStore{tickets: make(map[string]model.Ticket)}
}

func (s *memStore) CreateTicket(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = *t
	return nil
}

func (s *memStore) GetTicket(_ context.Context, id string) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, eris.Errorf("ticket %s not found", id)
	}
	out := t
	return &out, nil
}

func (s *memStore) UpdateTicket(_ context.Context, t *model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = *t
	return nil
}

func (s *memStore) ListTickets(_ context.Context, filter store.TicketFilter) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if filter.Status == "" || t.Status == filter.Status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) CreateEscalation(_ context.Context, rec model.EscalationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalations = append(s.escalations, rec)
	return nil
}

func (s *memStore) GetEscalationByTicket(_ context.Context, ticketID string) (*model.EscalationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.escalations {
		if rec.TicketID == ticketID {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListEscalations(_ context.Context) ([]model.EscalationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.EscalationRecord(nil), s.escalations...), nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

// --- Notifier Mock ---

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, rec model.EscalationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
