package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	DatabaseURL     string
	BatchSize       uint64
	ParallelBatches uint64
	PollInterval    time.Duration
	MetadataTimeout time.Duration
	IPFSGateway     string
	MetricsListen   string
	MaxRetries      int
	RetryBackoff    time.Duration
	LogLevel        string

	IndexMainnet bool
	IndexTestnet bool
	MainnetRPC   string
	TestnetRPC   string

	MainnetMarketplace string
	TestnetMarketplace string

	MainnetStartBlock uint64
	TestnetStartBlock uint64

	MainnetMarketplaceStartBlock uint64
	TestnetMarketplaceStartBlock uint64
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGENTSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", uint64(100))
	v.SetDefault("parallel-batches", uint64(10))
	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("metadata-timeout", 10*time.Second)
	v.SetDefault("ipfs-gateway", "https://ipfs.io/ipfs/")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("index-mainnet", true)
	v.SetDefault("index-testnet", false)
	v.SetDefault("mainnet-rpc", mainnetDefaultRPC)
	v.SetDefault("testnet-rpc", testnetDefaultRPC)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		DatabaseURL:        v.GetString("database-url"),
		BatchSize:          v.GetUint64("batch-size"),
		ParallelBatches:    v.GetUint64("parallel-batches"),
		PollInterval:       v.GetDuration("poll-interval"),
		MetadataTimeout:    v.GetDuration("metadata-timeout"),
		IPFSGateway:        v.GetString("ipfs-gateway"),
		MetricsListen:      v.GetString("metrics-listen"),
		MaxRetries:         v.GetInt("max-retries"),
		RetryBackoff:       v.GetDuration("retry-backoff"),
		LogLevel:           v.GetString("log-level"),
		IndexMainnet:       v.GetBool("index-mainnet"),
		IndexTestnet:       v.GetBool("index-testnet"),
		MainnetRPC:         v.GetString("mainnet-rpc"),
		TestnetRPC:         v.GetString("testnet-rpc"),
		MainnetMarketplace: v.GetString("mainnet-marketplace"),
		TestnetMarketplace: v.GetString("testnet-marketplace"),
		MainnetStartBlock:  v.GetUint64("mainnet-start-block"),
		TestnetStartBlock:  v.GetUint64("testnet-start-block"),

		MainnetMarketplaceStartBlock: v.GetUint64("mainnet-marketplace-start-block"),
		TestnetMarketplaceStartBlock: v.GetUint64("testnet-marketplace-start-block"),
	}

	return cfg, nil
}

// MaskRPCURL shortens an RPC URL for logging so embedded API keys do not
// end up in log output.
func MaskRPCURL(url string) string {
	if len(url) <= 24 {
		return url
	}
	return url[:16] + "..." + url[len(url)-8:]
}
