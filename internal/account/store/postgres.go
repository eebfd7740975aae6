package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"identity-manager/internal/account/models"
	"identity-manager/pkg/sentinel"
)

// Postgres persists accounts in a single aggregate table. Access points and
// personas ride along as JSONB: the registry always reads and writes the
// whole aggregate, so relational decomposition buys nothing here.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	anchor        BIGINT PRIMARY KEY,
	principal_id  TEXT NOT NULL,
	name          TEXT,
	phone_number  TEXT,
	phone_hash    TEXT UNIQUE,
	access_points JSONB NOT NULL DEFAULT '[]',
	personas      JSONB NOT NULL DEFAULT '[]',
	last_used     TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	removed       BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_principal_live
	ON accounts (principal_id) WHERE NOT removed;
CREATE SEQUENCE IF NOT EXISTS account_anchor_seq START 10001;
`

// EnsureSchema creates the accounts table and anchor sequence.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure accounts schema: %w", err)
	}
	return nil
}

func (p *Postgres) NextAnchor(ctx context.Context) (uint64, error) {
	var anchor uint64
	if err := p.db.QueryRowContext(ctx, `SELECT nextval('account_anchor_seq')`).Scan(&anchor); err != nil {
		return 0, fmt.Errorf("next anchor: %w", err)
	}
	return anchor, nil
}

func (p *Postgres) Create(ctx context.Context, acc models.Account) error {
	aps, personas, err := marshalAggregate(acc)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO accounts (anchor, principal_id, name, phone_number, phone_hash, access_points, personas, last_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		acc.Anchor, acc.PrincipalID, acc.Name, acc.PhoneNumber, acc.PhoneNumberHash, aps, personas, acc.LastUsed, acc.CreatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (p *Postgres) GetByPrincipal(ctx context.Context, principal string) (models.Account, error) {
	return p.get(ctx, `SELECT `+columns+` FROM accounts WHERE principal_id = $1 AND NOT removed`, principal)
}

func (p *Postgres) GetByAnchor(ctx context.Context, anchor uint64) (models.Account, error) {
	return p.get(ctx, `SELECT `+columns+` FROM accounts WHERE anchor = $1 AND NOT removed`, anchor)
}

func (p *Postgres) Update(ctx context.Context, acc models.Account) error {
	aps, personas, err := marshalAggregate(acc)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = $2, phone_number = $3, phone_hash = $4, access_points = $5, personas = $6, last_used = $7
		WHERE principal_id = $1 AND NOT removed`,
		acc.PrincipalID, acc.Name, acc.PhoneNumber, acc.PhoneNumberHash, aps, personas, acc.LastUsed)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, principal string) (models.Account, error) {
	acc, err := p.GetByPrincipal(ctx, principal)
	if err != nil {
		return models.Account{}, err
	}
	// Free the phone hash for reuse while keeping the row recoverable.
	_, err = p.db.ExecContext(ctx,
		`UPDATE accounts SET removed = TRUE, phone_hash = NULL WHERE principal_id = $1`, principal)
	if err != nil {
		return models.Account{}, fmt.Errorf("remove account: %w", err)
	}
	return acc, nil
}

func (p *Postgres) TakeRemoved(ctx context.Context, anchor uint64) (models.Account, error) {
	acc, err := p.get(ctx, `SELECT `+columns+` FROM accounts WHERE anchor = $1 AND removed`, anchor)
	if err != nil {
		return models.Account{}, err
	}
	if _, err := p.db.ExecContext(ctx, `DELETE FROM accounts WHERE anchor = $1`, anchor); err != nil {
		return models.Account{}, fmt.Errorf("take removed account: %w", err)
	}
	return acc, nil
}

func (p *Postgres) PhoneHashOwner(ctx context.Context, phoneHash string) (string, error) {
	var principal string
	err := p.db.QueryRowContext(ctx,
		`SELECT principal_id FROM accounts WHERE phone_hash = $1 AND NOT removed`, phoneHash).Scan(&principal)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("phone hash owner: %w", err)
	}
	return principal, nil
}

func (p *Postgres) All(ctx context.Context) ([]models.Account, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+columns+` FROM accounts WHERE NOT removed ORDER BY anchor`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var out []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (p *Postgres) ReplaceAll(ctx context.Context, accounts []models.Account) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace accounts: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `TRUNCATE accounts`); err != nil {
		return fmt.Errorf("replace accounts: %w", err)
	}
	for _, acc := range accounts {
		aps, personas, err := marshalAggregate(acc)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (anchor, principal_id, name, phone_number, phone_hash, access_points, personas, last_used, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			acc.Anchor, acc.PrincipalID, acc.Name, acc.PhoneNumber, acc.PhoneNumberHash, aps, personas, acc.LastUsed, acc.CreatedAt); err != nil {
			return fmt.Errorf("replace accounts: %w", err)
		}
	}
	return tx.Commit()
}

const columns = `anchor, principal_id, name, phone_number, phone_hash, access_points, personas, last_used, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (p *Postgres) get(ctx context.Context, query string, arg any) (models.Account, error) {
	acc, err := scanAccount(p.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, sentinel.ErrNotFound
	}
	return acc, err
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		acc          models.Account
		aps, persons []byte
	)
	err := row.Scan(&acc.Anchor, &acc.PrincipalID, &acc.Name, &acc.PhoneNumber, &acc.PhoneNumberHash,
		&aps, &persons, &acc.LastUsed, &acc.CreatedAt)
	if err != nil {
		return models.Account{}, err
	}
	if err := json.Unmarshal(aps, &acc.AccessPoints); err != nil {
		return models.Account{}, fmt.Errorf("decode access points: %w", err)
	}
	if err := json.Unmarshal(persons, &acc.Personas); err != nil {
		return models.Account{}, fmt.Errorf("decode personas: %w", err)
	}
	return acc, nil
}

func marshalAggregate(acc models.Account) ([]byte, []byte, error) {
	aps, err := json.Marshal(acc.AccessPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("encode access points: %w", err)
	}
	personas, err := json.Marshal(acc.Personas)
	if err != nil {
		return nil, nil, fmt.Errorf("encode personas: %w", err)
	}
	return aps, personas, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
