package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store"
	"shareledger/pkg/domain"
	"shareledger/pkg/platform/sentinel"
	txcontext "shareledger/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// PostgresStore persists registry state in PostgreSQL. The configuration is
// a single row. RunInTx takes a transaction-scoped advisory lock so registry
// mutations are serialized across every process sharing the database, also
// before the config row exists.
type PostgresStore struct {
	db *sql.DB
}

var _ store.TxStore = (*PostgresStore)(nil)

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the registry tables when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate registry schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) q(ctx context.Context) txcontext.DBTX {
	return txcontext.Querier(ctx, s.db)
}

// RunInTx runs fn in a SQL transaction carried on the context passed to
// the store methods.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(store.Store) error) error {
	if existing, ok := txcontext.From(ctx); ok {
		return fn(&txBound{store: s, tx: existing})
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('shareledger.registry'))`); err != nil {
		return fmt.Errorf("lock registry: %w", err)
	}

	if err := fn(&txBound{store: s, tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit registry tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Config(ctx context.Context) (*models.Config, error) {
	var (
		cfg   models.Config
		admin string
	)
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT admin, record_date, voting_open, updated_at
		FROM registry_config
		WHERE id = 1
	`).Scan(&admin, &cfg.RecordDate, &cfg.VotingOpen, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get registry config: %w", err)
	}
	cfg.Admin = domain.Identity(admin)
	return &cfg, nil
}

func (s *PostgresStore) SaveConfig(ctx context.Context, cfg *models.Config) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO registry_config (id, admin, record_date, voting_open, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			admin = EXCLUDED.admin,
			record_date = EXCLUDED.record_date,
			voting_open = EXCLUDED.voting_open,
			updated_at = EXCLUDED.updated_at
	`, cfg.Admin.String(), cfg.RecordDate, cfg.VotingOpen, cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save registry config: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.Identity) (*models.ShareRecord, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT identity, shares, registered_at, updated_at
		FROM shareholders
		WHERE identity = $1
	`, id.String())
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find shareholder: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Insert(ctx context.Context, record *models.ShareRecord) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO shareholders (identity, shares, registered_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, record.Identity.String(), record.Shares, record.RegisteredAt, record.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert shareholder: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, record *models.ShareRecord) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE shareholders
		SET shares = $2, updated_at = $3
		WHERE identity = $1
	`, record.Identity.String(), record.Shares, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update shareholder: %w", err)
	}
	return requireAffected(res, "update shareholder")
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.Identity) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM shareholders WHERE identity = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete shareholder: %w", err)
	}
	return requireAffected(res, "delete shareholder")
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.ShareRecord, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT identity, shares, registered_at, updated_at
		FROM shareholders
		ORDER BY identity COLLATE "C"
	`)
	if err != nil {
		return nil, fmt.Errorf("list shareholders: %w", err)
	}
	defer rows.Close()

	records := []*models.ShareRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shareholder: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shareholders: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ShareRecord, error) {
	var (
		rec models.ShareRecord
		id  string
	)
	if err := row.Scan(&id, &rec.Shares, &rec.RegisteredAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Identity = domain.Identity(id)
	return &rec, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// txBound routes every call through the transaction context, whatever
// context the caller passes in.
type txBound struct {
	store *PostgresStore
	tx    *sql.Tx
}

func (t *txBound) bind(ctx context.Context) context.Context {
	return txcontext.WithTx(ctx, t.tx)
}

func (t *txBound) Config(ctx context.Context) (*models.Config, error) {
	return t.store.Config(t.bind(ctx))
}

func (t *txBound) SaveConfig(ctx context.Context, cfg *models.Config) error {
	return t.store.SaveConfig(t.bind(ctx), cfg)
}

func (t *txBound) Find(ctx context.Context, id domain.Identity) (*models.ShareRecord, error) {
	return t.store.Find(t.bind(ctx), id)
}

func (t *txBound) Insert(ctx context.Context, record *models.ShareRecord) error {
	return t.store.Insert(t.bind(ctx), record)
}

func (t *txBound) Update(ctx context.Context, record *models.ShareRecord) error {
	return t.store.Update(t.bind(ctx), record)
}

func (t *txBound) Delete(ctx context.Context, id domain.Identity) error {
	return t.store.Delete(t.bind(ctx), id)
}

func (t *txBound) List(ctx context.Context) ([]*models.ShareRecord, error) {
	return t.store.List(t.bind(ctx))
}
