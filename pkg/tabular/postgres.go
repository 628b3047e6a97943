package tabular

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each table as one jsonb array in the sheets table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Read(ctx context.Context, name string) (*Table, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		version int64
		raw     []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT version, rows FROM sheets WHERE name = $1`, name,
	).Scan(&version, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Table{Name: name}, nil
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	t := &Table{Name: name, Version: version}
	if err := json.Unmarshal(raw, &t.Rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return t, nil
}

func (s *PostgresStore) Write(ctx context.Context, t *Table) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows := t.Rows
	if rows == nil {
		rows = []Row{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.Name, err)
	}

	var next int64
	err = s.pool.QueryRow(ctx, `
		UPDATE sheets
		SET rows = $2, version = version + 1, updated_at = now()
		WHERE name = $1 AND version = $3
		RETURNING version`,
		t.Name, payload, t.Version,
	).Scan(&next)
	if err == nil {
		t.Version = next
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}

	// Either the version moved or the table row does not exist yet.
	if t.Version != 0 {
		return ErrVersionConflict
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO sheets (name, version, rows) VALUES ($1, 1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING version`,
		t.Name, payload,
	).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}
	t.Version = next
	return nil
}
