package indexer

import (
	"context"

	"go.uber.org/zap"

	"agentscan/internal/chain"
	"agentscan/internal/metrics"
)

// BackfillTimestamps resolves block timestamps for rows that were
// stored before their header could be fetched. A block that still
// cannot be resolved is counted and left for the next pass.
func (ix *Indexer) BackfillTimestamps(ctx context.Context) error {
	refs, err := ix.store.BlocksMissingTimestamps(ctx)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	rpcByChain := make(map[int64]string, len(ix.chains))
	for _, cc := range ix.chains {
		rpcByChain[cc.ChainID] = cc.RPCURL
	}

	clients := make(map[int64]chain.RPC)
	defer func() {
		for _, client := range clients {
			client.Close()
		}
	}()

	filled, failed := 0, 0
	for i, ref := range refs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rpcURL, ok := rpcByChain[ref.ChainID]
		if !ok {
			// Rows from a chain this process no longer follows.
			failed++
			continue
		}

		client, ok := clients[ref.ChainID]
		if !ok {
			client, err = ix.dial(ctx, rpcURL)
			if err != nil {
				return err
			}
			clients[ref.ChainID] = client
		}

		ts, err := client.BlockTimestamp(ctx, uint64(ref.BlockNumber))
		if err != nil {
			failed++
			metrics.BackfillBlocks.WithLabelValues("error").Inc()
			ix.logger.Warn("backfill header fetch failed",
				zap.Int64("chain_id", ref.ChainID),
				zap.Int64("block_number", ref.BlockNumber),
				zap.Error(err),
			)
			continue
		}

		if err := ix.store.FillBlockTimestamp(ctx, ref, ts); err != nil {
			return err
		}
		filled++
		metrics.BackfillBlocks.WithLabelValues("ok").Inc()

		if (i+1)%50 == 0 {
			ix.logger.Info("backfill progress",
				zap.Int("done", i+1),
				zap.Int("total", len(refs)),
			)
		}
	}

	ix.logger.Info("timestamp backfill complete",
		zap.Int("filled", filled),
		zap.Int("failed", failed),
	)
	return nil
}
