package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS tickets (
	id                 TEXT PRIMARY KEY,
	client_name        TEXT NOT NULL DEFAULT '',
	client_email       TEXT NOT NULL DEFAULT '',
	subject            TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	keywords           TEXT NOT NULL DEFAULT '[]',
	priority_score     INTEGER NOT NULL DEFAULT 0,
	category           TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'pending_validation',
	attempts           INTEGER NOT NULL DEFAULT 0,
	confidence         REAL,
	sensitive          INTEGER NOT NULL DEFAULT 0,
	masked_description TEXT NOT NULL DEFAULT '',
	snippets           TEXT NOT NULL DEFAULT '[]',
	escalation_context TEXT NOT NULL DEFAULT '',
	clarifications     TEXT NOT NULL DEFAULT '[]',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS escalations (
	id         TEXT PRIMARY KEY,
	ticket_id  TEXT NOT NULL REFERENCES tickets(id),
	reason     TEXT NOT NULL DEFAULT '',
	context    TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
CREATE INDEX IF NOT EXISTS idx_escalations_ticket_id ON escalations(ticket_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	keywords, snippets, clarifications, err := marshalTicketLists(t)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, client_name, client_email, subject, description, keywords,
			priority_score, category, status, attempts, confidence, sensitive,
			masked_description, snippets, escalation_context, clarifications, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ClientName, t.ClientEmail, t.Subject, t.Description, keywords,
		t.PriorityScore, string(t.Category), string(t.Status), t.Attempts, t.Confidence, t.Sensitive,
		t.MaskedDescription, snippets, t.EscalationContext, clarifications, t.CreatedAt, t.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert ticket %s", t.ID)
}

func (s *SQLiteStore) UpdateTicket(ctx context.Context, t *model.Ticket) error {
	keywords, snippets, clarifications, err := marshalTicketLists(t)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET client_name = ?, client_email = ?, subject = ?, description = ?,
			keywords = ?, priority_score = ?, category = ?, status = ?, attempts = ?,
			confidence = ?, sensitive = ?, masked_description = ?, snippets = ?,
			escalation_context = ?, clarifications = ?, updated_at = ?
		WHERE id = ?`,
		t.ClientName, t.ClientEmail, t.Subject, t.Description,
		keywords, t.PriorityScore, string(t.Category), string(t.Status), t.Attempts,
		t.Confidence, t.Sensitive, t.MaskedDescription, snippets,
		t.EscalationContext, clarifications, time.Now().UTC(),
		t.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update ticket %s", t.ID)
	}
	return checkRowsAffected(res, "ticket", t.ID)
}

const ticketColumns = `id, client_name, client_email, subject, description, keywords,
	priority_score, category, status, attempts, confidence, sensitive,
	masked_description, snippets, escalation_context, clarifications, created_at, updated_at`

func (s *SQLiteStore) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get ticket %s", id)
	}
	return t, nil
}

func (s *SQLiteStore) ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tickets")
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ticket")
		}
		out = append(out, *t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list tickets rows")
}

func (s *SQLiteStore) CreateEscalation(ctx context.Context, rec model.EscalationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO escalations (id, ticket_id, reason, context, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TicketID, rec.Reason, rec.Context, string(rec.Category), rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert escalation %s", rec.ID)
}

func (s *SQLiteStore) GetEscalationByTicket(ctx context.Context, ticketID string) (*model.EscalationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ticket_id, reason, context, category, created_at
		FROM escalations WHERE ticket_id = ? ORDER BY created_at ASC LIMIT 1`, ticketID)

	rec, err := scanEscalation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get escalation for ticket %s", ticketID)
	}
	return rec, nil
}

func (s *SQLiteStore) ListEscalations(ctx context.Context) ([]model.EscalationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticket_id, reason, context, category, created_at
		FROM escalations ORDER BY created_at ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list escalations")
	}
	defer rows.Close()

	var out []model.EscalationRecord
	for rows.Next() {
		rec, err := scanEscalation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan escalation")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list escalations rows")
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*model.Ticket, error) {
	var t model.Ticket
	var keywords, snippets, clarifications, category, status string

	err := row.Scan(&t.ID, &t.ClientName, &t.ClientEmail, &t.Subject, &t.Description, &keywords,
		&t.PriorityScore, &category, &status, &t.Attempts, &t.Confidence, &t.Sensitive,
		&t.MaskedDescription, &snippets, &t.EscalationContext, &clarifications, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Category = model.Category(category)
	t.Status = model.TicketStatus(status)
	for _, item := range []struct {
		raw string
		dst *[]string
	}{
		{keywords, &t.Keywords},
		{snippets, &t.Snippets},
		{clarifications, &t.Clarifications},
	} {
		if item.raw == "" || item.raw == "[]" {
			continue
		}
		if err := json.Unmarshal([]byte(item.raw), item.dst); err != nil {
			return nil, eris.Wrap(err, "decode list column")
		}
	}
	return &t, nil
}

func scanEscalation(row scanner) (*model.EscalationRecord, error) {
	var rec model.EscalationRecord
	var category string
	if err := row.Scan(&rec.ID, &rec.TicketID, &rec.Reason, &rec.Context, &category, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Category = model.Category(category)
	return &rec, nil
}

func marshalTicketLists(t *model.Ticket) (keywords, snippets, clarifications string, err error) {
	for _, item := range []struct {
		src []string
		dst *string
	}{
		{t.Keywords, &keywords},
		{t.Snippets, &snippets},
		{t.Clarifications, &clarifications},
	} {
		src := item.src
		if src == nil {
			src = []string{}
		}
		raw, marshalErr := json.Marshal(src)
		if marshalErr != nil {
			return "", "", "", eris.Wrap(marshalErr, "encode list column")
		}
		*item.dst = string(raw)
	}
	return keywords, snippets, clarifications, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Errorf("%s %s not found", kind, id)
	}
	return nil
}
