package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agentscan/internal/chain"
	"agentscan/internal/config"
	"agentscan/internal/metrics"
	"agentscan/internal/storage"
)

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	BatchSize        uint64
	ParallelBatches  uint64
	PollInterval     time.Duration
	BackfillInterval time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
}

// MetadataResolver resolves agent URI documents into agent rows.
type MetadataResolver interface {
	Resolve(ctx context.Context, chainID, agentID int64, uri string) error
}

// Indexer follows a set of chains and applies registry and marketplace
// events to the store. Each contract keeps its own cursor; a cycle
// schedules up to ParallelBatches block ranges and advances the cursor
// to the highest contiguous range that succeeded.
type Indexer struct {
	cfg      RunConfig
	chains   []config.ChainConfig
	store    storage.Store
	dial     chain.Factory
	resolver MetadataResolver
	logger   *zap.Logger

	// spawn runs fire-and-forget work. Tests replace it to run inline.
	spawn func(func())

	configSynced map[int64]bool
}

// New builds an Indexer with its dependencies.
func New(cfg RunConfig, chains []config.ChainConfig, store storage.Store, dial chain.Factory, resolver MetadataResolver, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dial == nil {
		dial = chain.Dial
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.ParallelBatches == 0 {
		cfg.ParallelBatches = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BackfillInterval <= 0 {
		cfg.BackfillInterval = time.Minute
	}
	return &Indexer{
		cfg:          cfg,
		chains:       chains,
		store:        store,
		dial:         dial,
		resolver:     resolver,
		logger:       logger,
		spawn:        func(fn func()) { go fn() },
		configSynced: make(map[int64]bool),
	}
}

// Run executes the indexing loop until ctx is cancelled.
func (ix *Indexer) Run(ctx context.Context) error {
	if ix.store == nil {
		return fmt.Errorf("store is nil")
	}
	if len(ix.chains) == 0 {
		return fmt.Errorf("at least one chain is required")
	}

	// Catch up rows left without a timestamp by a previous run before
	// the loop starts producing new ones.
	if err := ix.BackfillTimestamps(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ix.logger.Warn("timestamp backfill failed", zap.Error(err))
	}

	backfill := time.NewTicker(ix.cfg.BackfillInterval)
	defer backfill.Stop()

	for {
		caughtUp := true
		for _, cc := range ix.chains {
			up, err := ix.syncChain(ctx, cc)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				ix.logger.Warn("chain cycle failed",
					zap.String("chain", cc.Name),
					zap.Error(err),
				)
				// A failing chain waits out the poll interval like a
				// caught-up one instead of retrying in a tight loop.
				continue
			}
			caughtUp = caughtUp && up
		}

		// While any chain is behind the next cycle starts immediately;
		// the poll interval only paces a caught-up loop.
		if !caughtUp {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-backfill.C:
				if err := ix.BackfillTimestamps(ctx); err != nil && ctx.Err() == nil {
					ix.logger.Warn("timestamp backfill failed", zap.Error(err))
				}
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-backfill.C:
			if err := ix.BackfillTimestamps(ctx); err != nil && ctx.Err() == nil {
				ix.logger.Warn("timestamp backfill failed", zap.Error(err))
			}
		case <-time.After(ix.cfg.PollInterval):
		}
	}
}

// syncChain runs one indexing cycle for every contract on the chain.
// It reports whether all cursors reached the chain tip.
func (ix *Indexer) syncChain(ctx context.Context, cc config.ChainConfig) (bool, error) {
	client, err := ix.dial(ctx, cc.RPCURL)
	if err != nil {
		return false, fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	tip, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return false, fmt.Errorf("get latest block: %w", err)
	}

	if cc.Marketplace != nil && !ix.configSynced[cc.ChainID] {
		if err := ix.syncMarketplaceConfig(ctx, client, cc); err != nil {
			ix.logger.Warn("marketplace config sync failed",
				zap.String("chain", cc.Name),
				zap.Error(err),
			)
		} else {
			ix.configSynced[cc.ChainID] = true
		}
	}

	// The three contract families sync concurrently; one family failing
	// does not stop the others, it just leaves the chain behind.
	targets := ix.contractsFor(cc)
	ups := make([]bool, len(targets))
	errs := make([]error, len(targets))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		group.Go(func() error {
			ups[i], errs[i] = ix.syncContract(groupCtx, cc, target, tip)
			return nil
		})
	}
	_ = group.Wait()

	caughtUp := true
	for i, target := range targets {
		if errs[i] != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			ix.logger.Warn("contract sync failed",
				zap.String("chain", cc.Name),
				zap.String("contract", target.label),
				zap.Error(errs[i]),
			)
			caughtUp = false
			continue
		}
		caughtUp = caughtUp && ups[i]
	}
	return caughtUp, nil
}

// contractTarget is one contract the cycle follows on a chain.
type contractTarget struct {
	label   string
	address common.Address
	topics  []common.Hash
	start   uint64
	apply   func(ctx context.Context, cc config.ChainConfig, client chain.RPC, log types.Log) error
}

func (ix *Indexer) contractsFor(cc config.ChainConfig) []contractTarget {
	targets := []contractTarget{
		{
			label:   "IdentityRegistry",
			address: cc.IdentityRegistry,
			topics:  identityTopics(),
			start:   cc.StartBlock,
			apply:   ix.applyIdentityLog,
		},
		{
			label:   "ReputationRegistry",
			address: cc.ReputationRegistry,
			topics:  reputationTopics(),
			start:   cc.StartBlock,
			apply:   ix.applyReputationLog,
		},
	}
	if cc.Marketplace != nil {
		targets = append(targets, contractTarget{
			label:   "Marketplace",
			address: *cc.Marketplace,
			topics:  marketplaceTopics(),
			start:   cc.MarketplaceStart(),
			apply:   ix.applyMarketplaceLog,
		})
	}
	return targets
}

// syncContract schedules the pending ranges for one contract and moves
// its cursor. Ranges run concurrently but are applied to the cursor in
// order: the first failure pins the cursor at the last contiguous
// success, so a failed range is retried whole on the next cycle. The
// bool reports whether the cursor reached the tip this cycle.
func (ix *Indexer) syncContract(ctx context.Context, cc config.ChainConfig, target contractTarget, tip uint64) (bool, error) {
	addr := target.address.Hex()

	last, ok, err := ix.store.Cursor(ctx, cc.ChainID, addr)
	if err != nil {
		return false, fmt.Errorf("load cursor %s: %w", target.label, err)
	}
	from := target.start
	if ok {
		from = uint64(last) + 1
	}
	if from > tip {
		return true, nil
	}

	ranges, err := PlanRanges(from, tip, ix.cfg.BatchSize, ix.cfg.ParallelBatches)
	if err != nil {
		return false, err
	}

	if len(ranges) > 1 {
		ix.logger.Info("catching up",
			zap.String("chain", cc.Name),
			zap.String("contract", target.label),
			zap.Uint64("from", ranges[0].From),
			zap.Uint64("to", ranges[len(ranges)-1].To),
			zap.Int("ranges", len(ranges)),
		)
	}

	results := make([]error, len(ranges))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, blockRange := range ranges {
		i, blockRange := i, blockRange
		group.Go(func() error {
			results[i] = ix.processRange(groupCtx, cc, target, blockRange)
			return nil
		})
	}
	_ = group.Wait()

	applied := false
	cursor := int64(0)
	for i, blockRange := range ranges {
		if results[i] != nil {
			metrics.BatchFailures.WithLabelValues(cc.Name, target.label).Inc()
			ix.logger.Warn("range failed, holding cursor",
				zap.String("chain", cc.Name),
				zap.String("contract", target.label),
				zap.Uint64("from", blockRange.From),
				zap.Uint64("to", blockRange.To),
				zap.Error(results[i]),
			)
			break
		}
		applied = true
		cursor = int64(blockRange.To)
	}

	if !applied {
		return false, nil
	}
	if err := ix.store.SaveCursor(ctx, cc.ChainID, addr, target.label, cursor); err != nil {
		return false, fmt.Errorf("save cursor %s: %w", target.label, err)
	}
	metrics.LastIndexedBlock.WithLabelValues(cc.Name, target.label).Set(float64(cursor))
	return cursor == int64(tip), nil
}

// processRange fetches and applies the logs of one block range using a
// fresh RPC connection.
func (ix *Indexer) processRange(ctx context.Context, cc config.ChainConfig, target contractTarget, blockRange BlockRange) error {
	client, err := ix.dial(ctx, cc.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	var logs []types.Log
	err = withRetry(ctx, ix.cfg.MaxRetries, ix.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = client.FilterLogs(ctx, blockRange.From, blockRange.To, []common.Address{target.address}, target.topics)
		if err != nil {
			ix.logger.Warn("filter logs failed",
				zap.String("chain", cc.Name),
				zap.String("contract", target.label),
				zap.Uint64("from", blockRange.From),
				zap.Uint64("to", blockRange.To),
				zap.Error(err),
			)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("filter logs: %w", err)
	}

	for _, log := range logs {
		if log.Removed {
			continue
		}
		if err := target.apply(ctx, cc, client, log); err != nil {
			return fmt.Errorf("apply log %s #%d: %w", log.TxHash.Hex(), log.Index, err)
		}
		metrics.LogsProcessed.WithLabelValues(cc.Name, target.label).Inc()
	}
	return nil
}
