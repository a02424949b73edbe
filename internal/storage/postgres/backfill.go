package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"agentscan/internal/model"
)

// Tables carrying a (chain_id, block_number, block_timestamp) triple.
var timestampedTables = []string{
	"agents",
	"feedbacks",
	"feedback_responses",
	"agent_activity",
	"listings",
	"offers",
	"collection_offers",
	"auctions",
	"auction_bids",
	"dutch_auctions",
	"bundles",
}

// BlocksMissingTimestamps lists every (chain, block) pair referenced by
// a row whose block_timestamp is still null.
func (s *Store) BlocksMissingTimestamps(ctx context.Context) ([]model.BlockRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT chain_id, block_number FROM (
			          SELECT chain_id, block_number FROM agents WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM feedbacks WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM feedback_responses WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM agent_activity WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM listings WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM offers WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM collection_offers WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM auctions WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM auction_bids WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM dutch_auctions WHERE block_timestamp IS NULL
			UNION ALL SELECT chain_id, block_number FROM bundles WHERE block_timestamp IS NULL
		) missing
		ORDER BY chain_id, block_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]model.BlockRef, 0)
	for rows.Next() {
		var ref model.BlockRef
		if err := rows.Scan(&ref.ChainID, &ref.BlockNumber); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// FillBlockTimestamp writes the resolved timestamp into every table
// that still carries a null for this block.
func (s *Store) FillBlockTimestamp(ctx context.Context, ref model.BlockRef, ts time.Time) error {
	batch := &pgx.Batch{}
	for _, table := range timestampedTables {
		batch.Queue(
			`UPDATE `+table+` SET block_timestamp = $3 WHERE chain_id = $1 AND block_number = $2 AND block_timestamp IS NULL`,
			ref.ChainID, ref.BlockNumber, ts.UTC(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range timestampedTables {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
