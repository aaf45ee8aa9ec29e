package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgUndefinedTable = "42P01"
	documentName     = "catalog"
)

// PostgresStore keeps the whole Document as a single JSONB row.
type PostgresStore struct {
	db   *sql.DB
	seed SeedFunc
}

func OpenPostgres(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewPostgresStore(db *sql.DB, seed SeedFunc) *PostgresStore {
	return &PostgresStore{db: db, seed: seed}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS catalog_documents (
				name       TEXT PRIMARY KEY,
				body       JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Load(ctx context.Context) (Document, error) {
	var raw []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT body
			FROM catalog_documents
			WHERE name = $1
		`, documentName).Scan(&raw)
	})

	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		raw = nil
	case isUndefinedTable(err):
		if err := s.Migrate(ctx); err != nil {
			return Document{}, fmt.Errorf("migrate catalog: %w", err)
		}
		raw = nil
	default:
		return Document{}, fmt.Errorf("select catalog: %w", err)
	}

	doc, ok, err := decodeDocument(raw)
	if err != nil {
		return Document{}, fmt.Errorf("decode catalog: %w", err)
	}
	if ok {
		return doc, nil
	}

	return seedDocument(ctx, s, s.seed)
}

func (s *PostgresStore) Flush(ctx context.Context, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO catalog_documents (name, body, updated_at)
			VALUES ($1, $2::jsonb, now())
			ON CONFLICT (name) DO UPDATE
			SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
		`, documentName, string(raw))
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert catalog: %w", err)
	}
	return nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
