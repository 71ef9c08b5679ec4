package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xavierca1/leadflow/internal/entity"
)

const pgUniqueViolation = "23505"

var schema = map[Dialect]string{
	DialectPostgres: `
		CREATE TABLE IF NOT EXISTS leads (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			phone      TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			source     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	DialectSQLite: `
		CREATE TABLE IF NOT EXISTS leads (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			phone      TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL,
			source     TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
}

const leadColumns = `id, name, email, phone, status, source, created_at`

type LeadRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewLeadRepository(db *sql.DB, dialect Dialect) *LeadRepository {
	return &LeadRepository{DB: db, Dialect: dialect}
}

// Migrate creates the leads table if it does not exist.
func (r *LeadRepository) Migrate(ctx context.Context) error {
	ddl, ok := schema[r.Dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", r.Dialect)
	}
	if _, err := r.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create leads table: %w", err)
	}
	return nil
}

func (r *LeadRepository) List(ctx context.Context) ([]*entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []*entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	return r.findOne(ctx, r.DB, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
}

func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	return r.findOne(ctx, r.DB, `SELECT `+leadColumns+` FROM leads WHERE email = $1`, entity.NormalizeEmail(email))
}

func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO leads (id, name, email, phone, status, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctx, r.rebind(query),
		lead.ID,
		lead.Name,
		entity.NormalizeEmail(lead.Email),
		lead.Phone,
		string(lead.Status),
		string(lead.Source),
		lead.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return entity.ErrEmailAlreadyExists
	}
	return err
}

// Update reads, patches and writes the row inside one transaction.
func (r *LeadRepository) Update(ctx context.Context, id string, patch entity.LeadPatch) (*entity.Lead, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	if r.Dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	lead, err := r.findOne(ctx, tx, query, id)
	if err != nil {
		return nil, err
	}

	if err := lead.Apply(patch); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, r.rebind(`
		UPDATE leads SET name = $1, email = $2, phone = $3, status = $4
		WHERE id = $5`),
		lead.Name, lead.Email, lead.Phone, string(lead.Status), id,
	)
	if isUniqueViolation(err) {
		return nil, entity.ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, r.rebind(`DELETE FROM leads WHERE id = $1`), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *LeadRepository) findOne(ctx context.Context, q querier, query string, args ...any) (*entity.Lead, error) {
	lead, err := scanLead(q.QueryRowContext(ctx, r.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	return lead, err
}

func scanLead(s scanner) (*entity.Lead, error) {
	var lead entity.Lead
	var status, source string
	err := s.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &status, &source, &lead.CreatedAt)
	if err != nil {
		return nil, err
	}
	lead.Status = entity.LeadStatus(status)
	lead.Source = entity.LeadSource(source)
	lead.CreatedAt = lead.CreatedAt.UTC()
	return &lead, nil
}

// rebind rewrites $n placeholders to ? for sqlite. Every query here uses each
// placeholder once and in order.
func (r *LeadRepository) rebind(query string) string {
	if r.Dialect != DialectSQLite {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j > i+1 {
				b.WriteByte('?')
				i = j - 1
				continue
			}
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}
