package indexer

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"agentscan/internal/chain"
	"agentscan/internal/contracts"
)

// eventMeta carries the chain coordinates shared by every stored row.
type eventMeta struct {
	blockNumber int64
	timestamp   *time.Time
	txHash      string
	logIndex    int64
}

// logMeta resolves the coordinates of a log. The block timestamp is
// best effort: when the header fetch fails the row is stored with a
// null timestamp and the backfill pass fills it in later.
func (ix *Indexer) logMeta(ctx context.Context, client chain.RPC, log types.Log) eventMeta {
	meta := eventMeta{
		blockNumber: int64(log.BlockNumber),
		txHash:      log.TxHash.Hex(),
		logIndex:    int64(log.Index),
	}
	ts, err := client.BlockTimestamp(ctx, log.BlockNumber)
	if err != nil {
		ix.logger.Warn("block timestamp fetch failed",
			zap.Uint64("block_number", log.BlockNumber),
			zap.Error(err),
		)
		return meta
	}
	meta.timestamp = &ts
	return meta
}

func identityTopics() []common.Hash {
	contractABI, err := contracts.IdentityABI()
	if err != nil {
		return nil
	}
	return contracts.EventIDs(contractABI)
}

func reputationTopics() []common.Hash {
	contractABI, err := contracts.ReputationABI()
	if err != nil {
		return nil
	}
	return contracts.EventIDs(contractABI)
}

func marketplaceTopics() []common.Hash {
	contractABI, err := contracts.MarketplaceABI()
	if err != nil {
		return nil
	}
	return contracts.EventIDs(contractABI)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
