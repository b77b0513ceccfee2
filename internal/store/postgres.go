package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS tickets (
	id                 TEXT PRIMARY KEY,
	client_name        TEXT NOT NULL DEFAULT '',
	client_email       TEXT NOT NULL DEFAULT '',
	subject            TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	keywords           JSONB NOT NULL DEFAULT '[]',
	priority_score     INTEGER NOT NULL DEFAULT 0,
	category           TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'pending_validation',
	attempts           INTEGER NOT NULL DEFAULT 0,
	confidence         DOUBLE PRECISION,
	sensitive          BOOLEAN NOT NULL DEFAULT FALSE,
	masked_description TEXT NOT NULL DEFAULT '',
	snippets           JSONB NOT NULL DEFAULT '[]',
	escalation_context TEXT NOT NULL DEFAULT '',
	clarifications     JSONB NOT NULL DEFAULT '[]',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS escalations (
	id         TEXT PRIMARY KEY,
	ticket_id  TEXT NOT NULL REFERENCES tickets(id),
	reason     TEXT NOT NULL DEFAULT '',
	context    TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
CREATE INDEX IF NOT EXISTS idx_escalations_ticket_id ON escalations(ticket_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	keywords, snippets, clarifications, err := marshalTicketLists(t)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO tickets (id, client_name, client_email, subject, description, keywords,
			priority_score, category, status, attempts, confidence, sensitive,
			masked_description, snippets, escalation_context, clarifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		t.ID, t.ClientName, t.ClientEmail, t.Subject, t.Description, keywords,
		t.PriorityScore, string(t.Category), string(t.Status), t.Attempts, t.Confidence, t.Sensitive,
		t.MaskedDescription, snippets, t.EscalationContext, clarifications, t.CreatedAt, t.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert ticket %s", t.ID)
}

func (s *PostgresStore) UpdateTicket(ctx context.Context, t *model.Ticket) error {
	keywords, snippets, clarifications, err := marshalTicketLists(t)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE tickets SET client_name = $1, client_email = $2, subject = $3, description = $4,
			keywords = $5, priority_score = $6, category = $7, status = $8, attempts = $9,
			confidence = $10, sensitive = $11, masked_description = $12, snippets = $13,
			escalation_context = $14, clarifications = $15, updated_at = $16
		WHERE id = $17`,
		t.ClientName, t.ClientEmail, t.Subject, t.Description,
		keywords, t.PriorityScore, string(t.Category), string(t.Status), t.Attempts,
		t.Confidence, t.Sensitive, t.MaskedDescription, snippets,
		t.EscalationContext, clarifications, time.Now().UTC(),
		t.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update ticket %s", t.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ticket %s not found", t.ID)
	}
	return nil
}

func (s *PostgresStore) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	t, err := scanPgTicket(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get ticket %s", id)
	}
	return t, nil
}

func (s *PostgresStore) ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var args []any

	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tickets")
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		t, err := scanPgTicket(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticket")
		}
		out = append(out, *t)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list tickets rows")
}

func (s *PostgresStore) CreateEscalation(ctx context.Context, rec model.EscalationRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO escalations (id, ticket_id, reason, context, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.TicketID, rec.Reason, rec.Context, string(rec.Category), rec.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert escalation %s", rec.ID)
}

func (s *PostgresStore) GetEscalationByTicket(ctx context.Context, ticketID string) (*model.EscalationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, ticket_id, reason, context, category, created_at
		FROM escalations WHERE ticket_id = $1 ORDER BY created_at ASC LIMIT 1`, ticketID)

	rec, err := scanEscalation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get escalation for ticket %s", ticketID)
	}
	return rec, nil
}

func (s *PostgresStore) ListEscalations(ctx context.Context) ([]model.EscalationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ticket_id, reason, context, category, created_at
		FROM escalations ORDER BY created_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list escalations")
	}
	defer rows.Close()

	var out []model.EscalationRecord
	for rows.Next() {
		rec, err := scanEscalation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan escalation")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list escalations rows")
}

func scanPgTicket(row scanner) (*model.Ticket, error) {
	var t model.Ticket
	var keywords, snippets, clarifications []byte
	var category, status string

	err := row.Scan(&t.ID, &t.ClientName, &t.ClientEmail, &t.Subject, &t.Description, &keywords,
		&t.PriorityScore, &category, &status, &t.Attempts, &t.Confidence, &t.Sensitive,
		&t.MaskedDescription, &snippets, &t.EscalationContext, &clarifications, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Category = model.Category(category)
	t.Status = model.TicketStatus(status)
	for _, item := range []struct {
		raw []byte
		dst *[]string
	}{
		{keywords, &t.Keywords},
		{snippets, &t.Snippets},
		{clarifications, &t.Clarifications},
	} {
		if len(item.raw) == 0 || string(item.raw) == "[]" {
			continue
		}
		if err := json.Unmarshal(item.raw, item.dst); err != nil {
			return nil, eris.Wrap(err, "decode list column")
		}
	}
	return &t, nil
}
