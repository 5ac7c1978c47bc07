package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/m3rciful/joinbot/core/database"
	"github.com/m3rciful/joinbot/core/logger"
)

// appRow mirrors the applications table. Timestamps are stored as unix
// microseconds so both dialects compare and sort them identically.
type appRow struct {
	ChatID        int64          `db:"chat_id"`
	State         sql.NullString `db:"conversation_state"`
	Name          sql.NullString `db:"name"`
	Company       sql.NullString `db:"company"`
	Expertise     sql.NullString `db:"expertise"`
	Email         sql.NullString `db:"email"`
	Motivation    sql.NullString `db:"motivation"`
	VerifyMethod  sql.NullString `db:"verification_method"`
	VerifyValue   sql.NullString `db:"verification_value"`
	VerifyRefName sql.NullString `db:"verification_ref_name"`
	Status        string         `db:"status"`
	Reason        sql.NullString `db:"decision_reason"`
	ReviewerID    sql.NullInt64  `db:"reviewed_by_id"`
	ReviewerName  sql.NullString `db:"reviewed_by_name"`
	InviteLink    sql.NullString `db:"invite_link"`
	CreatedAt     int64          `db:"created_at"`
	UpdatedAt     int64          `db:"updated_at"`
}

func (r appRow) toApplication() (Application, error) {
	state, err := ParseState(r.State.String)
	if err != nil {
		return Application{}, fmt.Errorf("chat %d: %w", r.ChatID, err)
	}
	return Application{
		ChatID:         r.ChatID,
		State:          state,
		Name:           r.Name.String,
		Company:        r.Company.String,
		Expertise:      r.Expertise.String,
		Email:          r.Email.String,
		Motivation:     r.Motivation.String,
		VerifyMethod:   Method(r.VerifyMethod.String),
		VerifyValue:    r.VerifyValue.String,
		VerifyRefName:  r.VerifyRefName.String,
		Status:         Status(r.Status),
		DecisionReason: r.Reason.String,
		ReviewedByID:   r.ReviewerID.Int64,
		ReviewedByName: r.ReviewerName.String,
		InviteLink:     r.InviteLink.String,
		CreatedAt:      fromMicros(r.CreatedAt),
		UpdatedAt:      fromMicros(r.UpdatedAt),
	}, nil
}

func rowFrom(a Application) appRow {
	return appRow{
		ChatID:        a.ChatID,
		State:         nullStr(a.State.Token()),
		Name:          nullStr(a.Name),
		Company:       nullStr(a.Company),
		Expertise:     nullStr(a.Expertise),
		Email:         nullStr(a.Email),
		Motivation:    nullStr(a.Motivation),
		VerifyMethod:  nullStr(string(a.VerifyMethod)),
		VerifyValue:   nullStr(a.VerifyValue),
		VerifyRefName: nullStr(a.VerifyRefName),
		Status:        string(a.Status),
		Reason:        nullStr(a.DecisionReason),
		ReviewerID:    sql.NullInt64{Int64: a.ReviewedByID, Valid: a.ReviewedByID != 0},
		ReviewerName:  nullStr(a.ReviewedByName),
		InviteLink:    nullStr(a.InviteLink),
		CreatedAt:     toMicros(a.CreatedAt),
		UpdatedAt:     toMicros(a.UpdatedAt),
	}
}

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func toMicros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

const selectColumns = `chat_id, conversation_state, name, company, expertise, email, motivation,
	verification_method, verification_value, verification_ref_name,
	status, decision_reason, reviewed_by_id, reviewed_by_name, invite_link,
	created_at, updated_at`

type sqlStore struct {
	db       *sqlx.DB
	postgres bool
}

// NewSQL wraps an open connection into a Store. The sqlite connection is
// expected to open transactions in immediate mode and run with a single
// connection, which Connect configures.
func NewSQL(db *sqlx.DB, driver string) Store {
	return &sqlStore{db: db, postgres: driver == database.DriverPostgres}
}

func (s *sqlStore) Get(ctx context.Context, chatID int64) (Application, error) {
	var row appRow
	query := s.db.Rebind(`SELECT ` + selectColumns + ` FROM applications WHERE chat_id = ?`)
	err := s.db.GetContext(ctx, &row, query, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return Application{}, ErrNotFound
	}
	if err != nil {
		return Application{}, fmt.Errorf("load application: %w", err)
	}
	return row.toApplication()
}

func (s *sqlStore) Update(ctx context.Context, chatID int64, fn func(*Tx) error) error {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	// Postgres serializes concurrent updates of the same chat on a
	// transaction-scoped advisory lock. SQLite transactions start in
	// immediate mode, which locks the whole database.
	if s.postgres {
		if _, err := dbTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, chatID); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
	}

	var (
		row    appRow
		exists = true
	)
	query := dbTx.Rebind(`SELECT ` + selectColumns + ` FROM applications WHERE chat_id = ?`)
	err = dbTx.GetContext(ctx, &row, query, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return fmt.Errorf("load application: %w", err)
	}

	var app Application
	if exists {
		if app, err = row.toApplication(); err != nil {
			return err
		}
	}
	app.ChatID = chatID

	tx := newTx(app, exists, time.Now())
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	if err := s.write(ctx, dbTx, tx); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Store.Debug("record committed",
		slog.String("event", "store.update"),
		slog.Int64("chat_id", chatID),
		slog.String("state", tx.app.State.Token()),
		slog.String("status", string(tx.app.Status)),
	)
	return nil
}

func (s *sqlStore) write(ctx context.Context, dbTx *sqlx.Tx, tx *Tx) error {
	row := rowFrom(tx.app)
	if !tx.exists {
		_, err := dbTx.NamedExecContext(ctx, `
			INSERT INTO applications (`+selectColumns+`)
			VALUES (:chat_id, :conversation_state, :name, :company, :expertise, :email, :motivation,
				:verification_method, :verification_value, :verification_ref_name,
				:status, :decision_reason, :reviewed_by_id, :reviewed_by_name, :invite_link,
				:created_at, :updated_at)`, row)
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		return nil
	}
	_, err := dbTx.NamedExecContext(ctx, `
		UPDATE applications SET
			conversation_state = :conversation_state,
			name = :name, company = :company, expertise = :expertise,
			email = :email, motivation = :motivation,
			verification_method = :verification_method,
			verification_value = :verification_value,
			verification_ref_name = :verification_ref_name,
			status = :status, decision_reason = :decision_reason,
			reviewed_by_id = :reviewed_by_id, reviewed_by_name = :reviewed_by_name,
			invite_link = :invite_link, updated_at = :updated_at
		WHERE chat_id = :chat_id`, row)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	return nil
}

func (s *sqlStore) Close() error { return s.db.Close() }
