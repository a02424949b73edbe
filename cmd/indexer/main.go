package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"agentscan/internal/config"
	"agentscan/internal/indexer"
	"agentscan/internal/metadata"
	"agentscan/internal/metrics"
	"agentscan/internal/storage/postgres"
)

func main() {
	// A missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "agentscan",
		Short:        "Agent registry and marketplace indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the indexer loop",
		RunE:  runIndexer,
	}
	addRunFlags(runCmd)
	root.AddCommand(runCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Resolve missing block timestamps once and exit",
		RunE:  runBackfill,
	}
	addRunFlags(backfillCmd)
	root.AddCommand(backfillCmd)

	chainsCmd := &cobra.Command{
		Use:   "chains",
		Short: "Print the resolved chain set",
		RunE:  runChains,
	}
	addRunFlags(chainsCmd)
	root.AddCommand(chainsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("database-url", "", "Postgres connection string")
	cmd.Flags().Uint64("batch-size", 100, "blocks per batch")
	cmd.Flags().Uint64("parallel-batches", 10, "batches scheduled per cycle")
	cmd.Flags().Duration("poll-interval", 2*time.Second, "delay between cycles")
	cmd.Flags().Duration("metadata-timeout", 10*time.Second, "agent uri fetch timeout")
	cmd.Flags().String("ipfs-gateway", "https://ipfs.io/ipfs/", "gateway for ipfs:// agent uris")
	cmd.Flags().String("metrics-listen", "", "prometheus listen address, empty disables")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per rpc call")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().Bool("index-mainnet", true, "index monad mainnet")
	cmd.Flags().Bool("index-testnet", false, "index monad testnet")
	cmd.Flags().String("mainnet-rpc", "", "mainnet RPC URL override")
	cmd.Flags().String("testnet-rpc", "", "testnet RPC URL override")
	cmd.Flags().String("mainnet-marketplace", "", "mainnet marketplace contract address")
	cmd.Flags().String("testnet-marketplace", "", "testnet marketplace contract address")
	cmd.Flags().Uint64("mainnet-start-block", 0, "mainnet start block override")
	cmd.Flags().Uint64("testnet-start-block", 0, "testnet start block override")
}

func runIndexer(cmd *cobra.Command, _ []string) error {
	ix, cfg, logger, cleanup, err := buildIndexer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Serve(ctx, cfg.MetricsListen, logger)

	chains, err := cfg.Chains()
	if err != nil {
		return err
	}
	for _, cc := range chains {
		logger.Info("following chain",
			zap.String("chain", cc.Name),
			zap.Int64("chain_id", cc.ChainID),
			zap.String("rpc", config.MaskRPCURL(cc.RPCURL)),
			zap.Uint64("start_block", cc.StartBlock),
			zap.Bool("marketplace", cc.Marketplace != nil),
		)
	}

	err = ix.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	ix, _, _, cleanup, err := buildIndexer(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ix.BackfillTimestamps(ctx)
}

func runChains(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	chains, err := cfg.Chains()
	if err != nil {
		return err
	}
	for _, cc := range chains {
		marketplace := "-"
		if cc.Marketplace != nil {
			marketplace = fmt.Sprintf("%s (from block %d)", cc.Marketplace.Hex(), cc.MarketplaceStart())
		}
		fmt.Printf("%s (chain %d)\n  rpc: %s\n  identity: %s\n  reputation: %s\n  marketplace: %s\n  start block: %d\n",
			cc.Name, cc.ChainID, config.MaskRPCURL(cc.RPCURL),
			cc.IdentityRegistry.Hex(), cc.ReputationRegistry.Hex(),
			marketplace, cc.StartBlock,
		)
	}
	return nil
}

func buildIndexer(cmd *cobra.Command) (*indexer.Indexer, config.Config, *zap.Logger, func(), error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, config.Config{}, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, config.Config{}, nil, nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, config.Config{}, nil, nil, fmt.Errorf("database url is required")
	}

	chains, err := cfg.Chains()
	if err != nil {
		return nil, config.Config{}, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, config.Config{}, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, config.Config{}, nil, nil, fmt.Errorf("ping database: %w", err)
	}

	resolver := metadata.NewResolver(store, cfg.MetadataTimeout, cfg.IPFSGateway)

	ix := indexer.New(indexer.RunConfig{
		BatchSize:       cfg.BatchSize,
		ParallelBatches: cfg.ParallelBatches,
		PollInterval:    cfg.PollInterval,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
	}, chains, store, nil, resolver, logger)

	cleanup := func() {
		store.Close()
		_ = logger.Sync()
	}
	return ix, cfg, logger, cleanup, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
