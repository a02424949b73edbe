package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	mainnetChainID = 143
	testnetChainID = 10143

	mainnetDefaultRPC = "https://rpc.monad.xyz"
	testnetDefaultRPC = "https://testnet-rpc.monad.xyz"

	mainnetIdentity   = "0x8004A169FB4a3325136EB29fA0ceB6D2e539a432"
	mainnetReputation = "0x8004BAa17C55a88189AE136b182e5fdA19dE9b63"
	mainnetStartBlock = 52952790

	testnetIdentity   = "0x8004A818BFB912233c491871b3d84c89A494BD9e"
	testnetReputation = "0x8004B663056A597Dffe9eCcC1965A193B7388713"
	testnetStartBlock = 10391697
)

// ChainConfig describes one chain the indexer follows: the registry
// contracts, an optional marketplace contract, and where to start when
// no cursor exists yet. The marketplace may carry its own start block
// since it usually deploys well after the registries.
type ChainConfig struct {
	Name                  string
	ChainID               int64
	RPCURL                string
	IdentityRegistry      common.Address
	ReputationRegistry    common.Address
	Marketplace           *common.Address
	StartBlock            uint64
	MarketplaceStartBlock *uint64
}

// MarketplaceStart returns the first block to index the marketplace
// from, falling back to the chain start block.
func (cc ChainConfig) MarketplaceStart() uint64 {
	if cc.MarketplaceStartBlock != nil {
		return *cc.MarketplaceStartBlock
	}
	return cc.StartBlock
}

// Chains resolves the enabled chain set from the loaded configuration.
// Registry addresses are fixed per chain; RPC URLs, marketplace
// addresses, and start blocks may be overridden.
func (c Config) Chains() ([]ChainConfig, error) {
	chains := make([]ChainConfig, 0, 2)

	if c.IndexMainnet {
		cc := ChainConfig{
			Name:               "monad-mainnet",
			ChainID:            mainnetChainID,
			RPCURL:             c.MainnetRPC,
			IdentityRegistry:   common.HexToAddress(mainnetIdentity),
			ReputationRegistry: common.HexToAddress(mainnetReputation),
			StartBlock:         mainnetStartBlock,
		}
		if c.MainnetStartBlock != 0 {
			cc.StartBlock = c.MainnetStartBlock
		}
		if c.MainnetMarketplace != "" {
			if !common.IsHexAddress(c.MainnetMarketplace) {
				return nil, fmt.Errorf("invalid mainnet marketplace address: %s", c.MainnetMarketplace)
			}
			addr := common.HexToAddress(c.MainnetMarketplace)
			cc.Marketplace = &addr
			if c.MainnetMarketplaceStartBlock != 0 {
				start := c.MainnetMarketplaceStartBlock
				cc.MarketplaceStartBlock = &start
			}
		}
		chains = append(chains, cc)
	}

	if c.IndexTestnet {
		cc := ChainConfig{
			Name:               "monad-testnet",
			ChainID:            testnetChainID,
			RPCURL:             c.TestnetRPC,
			IdentityRegistry:   common.HexToAddress(testnetIdentity),
			ReputationRegistry: common.HexToAddress(testnetReputation),
			StartBlock:         testnetStartBlock,
		}
		if c.TestnetStartBlock != 0 {
			cc.StartBlock = c.TestnetStartBlock
		}
		if c.TestnetMarketplace != "" {
			if !common.IsHexAddress(c.TestnetMarketplace) {
				return nil, fmt.Errorf("invalid testnet marketplace address: %s", c.TestnetMarketplace)
			}
			addr := common.HexToAddress(c.TestnetMarketplace)
			cc.Marketplace = &addr
			if c.TestnetMarketplaceStartBlock != 0 {
				start := c.TestnetMarketplaceStartBlock
				cc.MarketplaceStartBlock = &start
			}
		}
		chains = append(chains, cc)
	}

	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains enabled")
	}
	return chains, nil
}
