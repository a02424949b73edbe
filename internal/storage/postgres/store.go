package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store provides Postgres persistence for the indexer.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Cursor returns the last indexed block for a contract on a chain.
func (s *Store) Cursor(ctx context.Context, chainID int64, contract string) (int64, bool, error) {
	var last int64
	row := s.pool.QueryRow(ctx, `
		SELECT last_block FROM indexer_cursors
		WHERE chain_id = $1 AND contract_address = $2
	`, chainID, contract)
	if err := row.Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return last, true, nil
}

// SaveCursor upserts the cursor for a contract on a chain. The cursor
// only moves forward; a replayed cycle cannot rewind it.
func (s *Store) SaveCursor(ctx context.Context, chainID int64, contract, label string, lastBlock int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_cursors (chain_id, contract_address, contract_name, last_block, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (chain_id, contract_address) DO UPDATE
		SET last_block = GREATEST(indexer_cursors.last_block, EXCLUDED.last_block),
		    contract_name = EXCLUDED.contract_name,
		    updated_at = now()
	`, chainID, contract, label, lastBlock)
	return err
}

// numString renders a decimal for a parameter bound with a ::numeric cast.
func numString(d decimal.Decimal) string {
	return d.String()
}

// numStringPtr renders an optional decimal, nil staying NULL.
func numStringPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// numStrings renders decimals for a ::numeric[] bound parameter.
func numStrings(ds []decimal.Decimal) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

// tsArg passes an optional timestamp, nil staying NULL.
func tsArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
