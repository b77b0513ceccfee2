package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_GetTicket_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM tickets WHERE id = \$1`).
		WithArgs("absent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetTicket(context.Background(), "absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get ticket")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateTicket_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tickets SET`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateTicket(context.Background(), &model.Ticket{ID: "absent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateEscalation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rec := model.EscalationRecord{
		ID:        "esc-1",
		TicketID:  "t-1",
		Reason:    "low_confidence",
		Context:   "ctx",
		Category:  model.CategoryTechnique,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO escalations`).
		WithArgs(rec.ID, rec.TicketID, rec.Reason, rec.Context, string(rec.Category), rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.CreateEscalation(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEscalationByTicket_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, ticket_id, reason, context, category, created_at`).
		WithArgs("t-2").
		WillReturnError(pgx.ErrNoRows)

	rec, err := s.GetEscalationByTicket(context.Background(), "t-2")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEscalationByTicket_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, ticket_id, reason, context, category, created_at`).
		WithArgs("t-3").
		WillReturnRows(pgxmock.NewRows([]string{"id", "ticket_id", "reason", "context", "category", "created_at"}).
			AddRow("esc-2", "t-3", "sensitive_data", "carte détectée", "facturation", created))

	rec, err := s.GetEscalationByTicket(context.Background(), "t-3")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "esc-2", rec.ID)
	assert.Equal(t, model.CategoryFacturation, rec.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS tickets`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
