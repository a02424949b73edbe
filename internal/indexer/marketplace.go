package indexer

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agentscan/internal/chain"
	"agentscan/internal/config"
	"agentscan/internal/contracts"
	"agentscan/internal/metrics"
	"agentscan/internal/model"
)

// applyMarketplaceLog dispatches one marketplace log.
func (ix *Indexer) applyMarketplaceLog(ctx context.Context, cc config.ChainConfig, client chain.RPC, log types.Log) error {
	contractABI, err := contracts.MarketplaceABI()
	if err != nil {
		return err
	}

	event, err := contracts.DecodeLog(contractABI, log)
	if err != nil {
		metrics.DecodeFailures.WithLabelValues(cc.Name, "Marketplace").Inc()
		ix.logger.Warn("skipping undecodable marketplace log",
			zap.String("chain", cc.Name),
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Error(err),
		)
		return nil
	}

	meta := ix.logMeta(ctx, client, log)

	switch event.Name {
	case "Listed":
		return ix.applyListed(ctx, cc, event, meta)
	case "Bought":
		return ix.applyBought(ctx, cc, event, meta)
	case "ListingCancelled":
		return ix.terminalByID(ctx, event, "listingId", func(id int64) error {
			return ix.store.UpdateListingStatus(ctx, cc.ChainID, id, model.StatusCancelled)
		})
	case "ListingPriceUpdated":
		return ix.applyListingPriceUpdated(ctx, cc, event)
	case "OfferMade":
		return ix.applyOfferMade(ctx, cc, event, meta)
	case "OfferAccepted":
		return ix.applyOfferAccepted(ctx, cc, event)
	case "OfferCancelled":
		return ix.terminalByID(ctx, event, "offerId", func(id int64) error {
			return ix.store.UpdateOfferStatus(ctx, cc.ChainID, id, model.StatusCancelled)
		})
	case "CollectionOfferMade":
		return ix.applyCollectionOfferMade(ctx, cc, event, meta)
	case "CollectionOfferAccepted":
		return ix.applyCollectionOfferAccepted(ctx, cc, event)
	case "CollectionOfferCancelled":
		return ix.terminalByID(ctx, event, "offerId", func(id int64) error {
			return ix.store.UpdateCollectionOfferStatus(ctx, cc.ChainID, id, model.StatusCancelled)
		})
	case "AuctionCreated":
		return ix.applyAuctionCreated(ctx, cc, event, meta)
	case "BidPlaced":
		return ix.applyBidPlaced(ctx, cc, event, meta)
	case "AuctionSettled":
		return ix.applyAuctionSettled(ctx, cc, event)
	case "AuctionCancelled":
		return ix.terminalByID(ctx, event, "auctionId", func(id int64) error {
			return ix.store.UpdateAuctionStatus(ctx, cc.ChainID, id, model.StatusCancelled)
		})
	case "AuctionExtended":
		return ix.applyAuctionExtended(ctx, cc, event)
	case "AuctionBuyNow":
		return ix.applyAuctionBuyNow(ctx, cc, event)
	case "AuctionReserveNotMet":
		return ix.terminalByID(ctx, event, "auctionId", func(id int64) error {
			return ix.store.UpdateAuctionStatus(ctx, cc.ChainID, id, model.StatusReserveNotMet)
		})
	case "DutchAuctionCreated":
		return ix.applyDutchAuctionCreated(ctx, cc, event, meta)
	case "DutchAuctionBought":
		return ix.applyDutchAuctionBought(ctx, cc, event)
	case "DutchAuctionCancelled":
		return ix.terminalByID(ctx, event, "auctionId", func(id int64) error {
			return ix.store.UpdateDutchAuctionStatus(ctx, cc.ChainID, id, model.StatusCancelled)
		})
	case "BundleListed":
		return ix.applyBundleListed(ctx, cc, client, event, meta)
	case "BundleBought":
		return ix.applyBundleBought(ctx, cc, event)
	case "BundleListingCancelled":
		return ix.terminalByID(ctx, event, "bundleId", func(id int64) error {
			return ix.store.UpdateBundleStatus(ctx, cc.ChainID, id, model.StatusCancelled)
		})
	case "PlatformFeeUpdated":
		return ix.applyPlatformFeeUpdated(ctx, cc, event)
	case "FeeRecipientUpdated":
		return ix.applyFeeRecipientUpdated(ctx, cc, event)
	case "PaymentTokenAdded":
		return ix.applyPaymentToken(ctx, cc, event, true)
	case "PaymentTokenRemoved":
		return ix.applyPaymentToken(ctx, cc, event, false)
	default:
		return nil
	}
}

// terminalByID applies one terminal status transition keyed by an id
// field. Transitions for ids that were never indexed are no-ops.
func (ix *Indexer) terminalByID(_ context.Context, event *contracts.Event, field string, update func(id int64) error) error {
	id, err := event.Int64(field)
	if err != nil {
		return err
	}
	return update(id)
}

func (ix *Indexer) applyListed(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	listingID, err := event.Int64("listingId")
	if err != nil {
		return err
	}
	seller, err := event.Address("seller")
	if err != nil {
		return err
	}
	nftContract, err := event.Address("nftContract")
	if err != nil {
		return err
	}
	tokenID, err := event.Decimal("tokenId")
	if err != nil {
		return err
	}
	paymentToken, err := event.Address("paymentToken")
	if err != nil {
		return err
	}
	price, err := event.Decimal("price")
	if err != nil {
		return err
	}
	expiry, err := event.Int64("expiry")
	if err != nil {
		return err
	}

	listing := model.Listing{
		ListingID:      listingID,
		ChainID:        cc.ChainID,
		Seller:         seller,
		NFTContract:    nftContract,
		TokenID:        tokenID,
		PaymentToken:   paymentToken,
		Price:          price,
		Expiry:         expiry,
		Status:         model.StatusActive,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	}
	if err := ix.store.UpsertListing(ctx, listing); err != nil {
		return err
	}

	return ix.maybeAgentActivity(ctx, cc, nftContract, tokenID, model.MarketplaceActivity(event.Name), map[string]interface{}{
		"listing_id": listingID,
		"seller":     seller,
		"price":      price.String(),
	}, meta)
}

func (ix *Indexer) applyBought(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	listingID, err := event.Int64("listingId")
	if err != nil {
		return err
	}
	buyer, err := event.Address("buyer")
	if err != nil {
		return err
	}
	price, err := event.Decimal("price")
	if err != nil {
		return err
	}

	// The event does not carry the NFT; the stored listing does. Look
	// it up before the status flips in case of races on replay.
	listing, err := ix.store.Listing(ctx, cc.ChainID, listingID)
	if err != nil {
		return err
	}

	if err := ix.store.MarkListingSold(ctx, cc.ChainID, listingID, buyer, price); err != nil {
		return err
	}

	if listing == nil {
		return nil
	}
	return ix.maybeAgentActivity(ctx, cc, listing.NFTContract, listing.TokenID, model.MarketplaceActivity(event.Name), map[string]interface{}{
		"listing_id": listingID,
		"seller":     listing.Seller,
		"buyer":      buyer,
		"price":      price.String(),
	}, meta)
}

func (ix *Indexer) applyListingPriceUpdated(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	listingID, err := event.Int64("listingId")
	if err != nil {
		return err
	}
	newPrice, err := event.Decimal("newPrice")
	if err != nil {
		return err
	}
	return ix.store.UpdateListingPrice(ctx, cc.ChainID, listingID, newPrice)
}

func (ix *Indexer) applyOfferMade(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	offerID, err := event.Int64("offerId")
	if err != nil {
		return err
	}
	offerer, err := event.Address("offerer")
	if err != nil {
		return err
	}
	nftContract, err := event.Address("nftContract")
	if err != nil {
		return err
	}
	tokenID, err := event.Decimal("tokenId")
	if err != nil {
		return err
	}
	paymentToken, err := event.Address("paymentToken")
	if err != nil {
		return err
	}
	amount, err := event.Decimal("amount")
	if err != nil {
		return err
	}
	expiry, err := event.Int64("expiry")
	if err != nil {
		return err
	}

	offer := model.Offer{
		OfferID:        offerID,
		ChainID:        cc.ChainID,
		Offerer:        offerer,
		NFTContract:    nftContract,
		TokenID:        tokenID,
		PaymentToken:   paymentToken,
		Amount:         amount,
		Expiry:         expiry,
		Status:         model.StatusActive,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	}
	if err := ix.store.UpsertOffer(ctx, offer); err != nil {
		return err
	}

	return ix.maybeAgentActivity(ctx, cc, nftContract, tokenID, model.MarketplaceActivity(event.Name), map[string]interface{}{
		"offer_id": offerID,
		"offerer":  offerer,
		"amount":   amount.String(),
	}, meta)
}

func (ix *Indexer) applyOfferAccepted(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	offerID, err := event.Int64("offerId")
	if err != nil {
		return err
	}
	seller, err := event.Address("seller")
	if err != nil {
		return err
	}
	return ix.store.MarkOfferAccepted(ctx, cc.ChainID, offerID, seller)
}

func (ix *Indexer) applyCollectionOfferMade(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	offerID, err := event.Int64("offerId")
	if err != nil {
		return err
	}
	offerer, err := event.Address("offerer")
	if err != nil {
		return err
	}
	nftContract, err := event.Address("nftContract")
	if err != nil {
		return err
	}
	paymentToken, err := event.Address("paymentToken")
	if err != nil {
		return err
	}
	amount, err := event.Decimal("amount")
	if err != nil {
		return err
	}
	expiry, err := event.Int64("expiry")
	if err != nil {
		return err
	}

	return ix.store.UpsertCollectionOffer(ctx, model.CollectionOffer{
		OfferID:        offerID,
		ChainID:        cc.ChainID,
		Offerer:        offerer,
		NFTContract:    nftContract,
		PaymentToken:   paymentToken,
		Amount:         amount,
		Expiry:         expiry,
		Status:         model.StatusActive,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	})
}

func (ix *Indexer) applyCollectionOfferAccepted(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	offerID, err := event.Int64("offerId")
	if err != nil {
		return err
	}
	seller, err := event.Address("seller")
	if err != nil {
		return err
	}
	tokenID, err := event.Decimal("tokenId")
	if err != nil {
		return err
	}
	return ix.store.MarkCollectionOfferAccepted(ctx, cc.ChainID, offerID, seller, tokenID)
}

func (ix *Indexer) applyAuctionCreated(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	auctionID, err := event.Int64("auctionId")
	if err != nil {
		return err
	}
	seller, err := event.Address("seller")
	if err != nil {
		return err
	}
	nftContract, err := event.Address("nftContract")
	if err != nil {
		return err
	}
	tokenID, err := event.Decimal("tokenId")
	if err != nil {
		return err
	}
	paymentToken, err := event.Address("paymentToken")
	if err != nil {
		return err
	}
	startPrice, err := event.Decimal("startPrice")
	if err != nil {
		return err
	}
	reservePrice, err := event.Decimal("reservePrice")
	if err != nil {
		return err
	}
	buyNowPrice, err := event.Decimal("buyNowPrice")
	if err != nil {
		return err
	}
	startTime, err := event.Int64("startTime")
	if err != nil {
		return err
	}
	endTime, err := event.Int64("endTime")
	if err != nil {
		return err
	}

	auction := model.Auction{
		AuctionID:      auctionID,
		ChainID:        cc.ChainID,
		Seller:         seller,
		NFTContract:    nftContract,
		TokenID:        tokenID,
		PaymentToken:   paymentToken,
		StartPrice:     startPrice,
		ReservePrice:   reservePrice,
		BuyNowPrice:    buyNowPrice,
		StartTime:      startTime,
		EndTime:        endTime,
		Status:         model.StatusActive,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	}
	if err := ix.store.UpsertAuction(ctx, auction); err != nil {
		return err
	}

	return ix.maybeAgentActivity(ctx, cc, nftContract, tokenID, model.MarketplaceActivity(event.Name), map[string]interface{}{
		"auction_id":  auctionID,
		"seller":      seller,
		"start_price": startPrice.String(),
	}, meta)
}

func (ix *Indexer) applyBidPlaced(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	auctionID, err := event.Int64("auctionId")
	if err != nil {
		return err
	}
	bidder, err := event.Address("bidder")
	if err != nil {
		return err
	}
	amount, err := event.Decimal("amount")
	if err != nil {
		return err
	}

	return ix.store.RecordBid(ctx, model.AuctionBid{
		AuctionID:      auctionID,
		ChainID:        cc.ChainID,
		Bidder:         bidder,
		Amount:         amount,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	})
}

func (ix *Indexer) applyAuctionSettled(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	auctionID, err := event.Int64("auctionId")
	if err != nil {
		return err
	}
	winner, err := event.Address("winner")
	if err != nil {
		return err
	}
	amount, err := event.Decimal("amount")
	if err != nil {
		return err
	}

	// A settlement without a winner means the auction ran out with no
	// qualifying bid. Either way the auction ends rather than sells;
	// Sold is reserved for listings, dutch auctions, and bundles.
	if common.HexToAddress(winner) == (common.Address{}) {
		return ix.store.UpdateAuctionStatus(ctx, cc.ChainID, auctionID, model.StatusEnded)
	}
	return ix.store.SettleAuction(ctx, cc.ChainID, auctionID, winner, amount)
}

func (ix *Indexer) applyAuctionExtended(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	auctionID, err := event.Int64("auctionId")
	if err != nil {
		return err
	}
	newEndTime, err := event.Int64("newEndTime")
	if err != nil {
		return err
	}
	return ix.store.UpdateAuctionEndTime(ctx, cc.ChainID, auctionID, newEndTime)
}

func (ix *Indexer) applyAuctionBuyNow(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	auctionID, err := event.Int64("auctionId")
	if err != nil {
		return err
	}
	buyer, err := event.Address("buyer")
	if err != nil {
		return err
	}
	price, err := event.Decimal("price")
	if err != nil {
		return err
	}
	return ix.store.SettleAuction(ctx, cc.ChainID, auctionID, buyer, price)
}

func (ix *Indexer) applyDutchAuctionCreated(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	auctionID, err := event.Int64("auctionId")
	if err != nil {
		return err
	}
	seller, err := event.Address("seller")
	if err != nil {
		return err
	}
	nftContract, err := event.Address("nftContract")
	if err != nil {
		return err
	}
	tokenID, err := event.Decimal("tokenId")
	if err != nil {
		return err
	}
	paymentToken, err := event.Address("paymentToken")
	if err != nil {
		return err
	}
	startPrice, err := event.Decimal("startPrice")
	if err != nil {
		return err
	}
	endPrice, err := event.Decimal("endPrice")
	if err != nil {
		return err
	}
	startTime, err := event.Int64("startTime")
	if err != nil {
		return err
	}
	endTime, err := event.Int64("endTime")
	if err != nil {
		return err
	}

	auction := model.DutchAuction{
		AuctionID:      auctionID,
		ChainID:        cc.ChainID,
		Seller:         seller,
		NFTContract:    nftContract,
		TokenID:        tokenID,
		PaymentToken:   paymentToken,
		StartPrice:     startPrice,
		EndPrice:       endPrice,
		StartTime:      startTime,
		EndTime:        endTime,
		Status:         model.StatusActive,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	}
	if err := ix.store.UpsertDutchAuction(ctx, auction); err != nil {
		return err
	}

	return ix.maybeAgentActivity(ctx, cc, nftContract, tokenID, model.MarketplaceActivity(event.Name), map[string]interface{}{
		"auction_id":  auctionID,
		"seller":      seller,
		"start_price": startPrice.String(),
		"end_price":   endPrice.String(),
	}, meta)
}

func (ix *Indexer) applyDutchAuctionBought(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	auctionID, err := event.Int64("auctionId")
	if err != nil {
		return err
	}
	buyer, err := event.Address("buyer")
	if err != nil {
		return err
	}
	price, err := event.Decimal("price")
	if err != nil {
		return err
	}
	return ix.store.MarkDutchAuctionSold(ctx, cc.ChainID, auctionID, buyer, price)
}

func (ix *Indexer) applyBundleListed(ctx context.Context, cc config.ChainConfig, client chain.RPC, event *contracts.Event, meta eventMeta) error {
	bundleID, err := event.Int64("bundleId")
	if err != nil {
		return err
	}
	seller, err := event.Address("seller")
	if err != nil {
		return err
	}
	itemCount, err := event.Int64("itemCount")
	if err != nil {
		return err
	}
	paymentToken, err := event.Address("paymentToken")
	if err != nil {
		return err
	}
	price, err := event.Decimal("price")
	if err != nil {
		return err
	}
	expiry, err := event.Int64("expiry")
	if err != nil {
		return err
	}

	// The event only carries the item count; the item list comes from
	// the contract. A failed call degrades to an empty list rather
	// than failing the range.
	nftContracts, tokenIDs, err := ix.fetchBundleItems(ctx, client, cc, bundleID)
	if err != nil {
		ix.logger.Warn("bundle item lookup failed",
			zap.String("chain", cc.Name),
			zap.Int64("bundle_id", bundleID),
			zap.Error(err),
		)
		nftContracts, tokenIDs = nil, nil
	}

	return ix.store.UpsertBundle(ctx, model.Bundle{
		BundleID:       bundleID,
		ChainID:        cc.ChainID,
		Seller:         seller,
		NFTContracts:   nftContracts,
		TokenIDs:       tokenIDs,
		ItemCount:      int32(itemCount),
		PaymentToken:   paymentToken,
		Price:          price,
		Expiry:         expiry,
		Status:         model.StatusActive,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	})
}

func (ix *Indexer) applyBundleBought(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	bundleID, err := event.Int64("bundleId")
	if err != nil {
		return err
	}
	buyer, err := event.Address("buyer")
	if err != nil {
		return err
	}
	price, err := event.Decimal("price")
	if err != nil {
		return err
	}
	return ix.store.MarkBundleSold(ctx, cc.ChainID, bundleID, buyer, price)
}

func (ix *Indexer) applyPlatformFeeUpdated(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	newFee, err := event.Int64("newFee")
	if err != nil {
		return err
	}
	fee := int32(newFee)
	return ix.store.UpsertMarketplaceConfig(ctx, model.MarketplaceConfig{
		ChainID:        cc.ChainID,
		PlatformFeeBps: &fee,
	})
}

func (ix *Indexer) applyFeeRecipientUpdated(ctx context.Context, cc config.ChainConfig, event *contracts.Event) error {
	recipient, err := event.Address("newRecipient")
	if err != nil {
		return err
	}
	return ix.store.UpsertMarketplaceConfig(ctx, model.MarketplaceConfig{
		ChainID:      cc.ChainID,
		FeeRecipient: &recipient,
	})
}

func (ix *Indexer) applyPaymentToken(ctx context.Context, cc config.ChainConfig, event *contracts.Event, active bool) error {
	token, err := event.Address("token")
	if err != nil {
		return err
	}
	return ix.store.SetPaymentToken(ctx, cc.ChainID, token, active)
}

// maybeAgentActivity cross-posts a marketplace event into the agent
// activity feed when the traded NFT is an agent identity token. Token
// ids outside the agent id range are skipped silently.
func (ix *Indexer) maybeAgentActivity(ctx context.Context, cc config.ChainConfig, nftContract string, tokenID decimal.Decimal, eventType string, fields map[string]interface{}, meta eventMeta) error {
	if !strings.EqualFold(nftContract, cc.IdentityRegistry.Hex()) {
		return nil
	}
	tokenBig := tokenID.BigInt()
	if !tokenBig.IsInt64() {
		return nil
	}

	return ix.store.InsertActivity(ctx, model.Activity{
		AgentID:        tokenBig.Int64(),
		ChainID:        cc.ChainID,
		EventType:      eventType,
		EventData:      activityData(fields),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	})
}

// fetchBundleItems reads the bundle item list from the contract.
func (ix *Indexer) fetchBundleItems(ctx context.Context, client chain.RPC, cc config.ChainConfig, bundleID int64) ([]string, []decimal.Decimal, error) {
	contractABI, err := contracts.MarketplaceABI()
	if err != nil {
		return nil, nil, err
	}

	input, err := contractABI.Pack("getBundleListing", big.NewInt(bundleID))
	if err != nil {
		return nil, nil, err
	}

	output, err := client.CallContract(ctx, ethereum.CallMsg{To: cc.Marketplace, Data: input}, nil)
	if err != nil {
		return nil, nil, err
	}

	values, err := contractABI.Unpack("getBundleListing", output)
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 3 {
		return nil, nil, fmt.Errorf("unexpected getBundleListing values: %d", len(values))
	}

	rawContracts, ok := values[1].([]common.Address)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported nftContracts type %T", values[1])
	}
	rawTokenIDs, ok := values[2].([]*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported tokenIds type %T", values[2])
	}

	nftContracts := make([]string, 0, len(rawContracts))
	for _, addr := range rawContracts {
		nftContracts = append(nftContracts, addr.Hex())
	}
	tokenIDs := make([]decimal.Decimal, 0, len(rawTokenIDs))
	for _, id := range rawTokenIDs {
		tokenIDs = append(tokenIDs, decimal.NewFromBigInt(id, 0))
	}
	return nftContracts, tokenIDs, nil
}

// syncMarketplaceConfig mirrors the contract fee settings into the
// store. It runs once per process per chain.
func (ix *Indexer) syncMarketplaceConfig(ctx context.Context, client chain.RPC, cc config.ChainConfig) error {
	contractABI, err := contracts.MarketplaceABI()
	if err != nil {
		return err
	}

	feeInput, err := contractABI.Pack("platformFeeBps")
	if err != nil {
		return err
	}
	feeOutput, err := client.CallContract(ctx, ethereum.CallMsg{To: cc.Marketplace, Data: feeInput}, nil)
	if err != nil {
		return err
	}
	feeValues, err := contractABI.Unpack("platformFeeBps", feeOutput)
	if err != nil {
		return err
	}
	feeBig, ok := feeValues[0].(*big.Int)
	if !ok || !feeBig.IsInt64() {
		return fmt.Errorf("unsupported platformFeeBps value %v", feeValues[0])
	}
	fee := int32(feeBig.Int64())

	recipientInput, err := contractABI.Pack("feeRecipient")
	if err != nil {
		return err
	}
	recipientOutput, err := client.CallContract(ctx, ethereum.CallMsg{To: cc.Marketplace, Data: recipientInput}, nil)
	if err != nil {
		return err
	}
	recipientValues, err := contractABI.Unpack("feeRecipient", recipientOutput)
	if err != nil {
		return err
	}
	recipientAddr, ok := recipientValues[0].(common.Address)
	if !ok {
		return fmt.Errorf("unsupported feeRecipient value %v", recipientValues[0])
	}
	recipient := recipientAddr.Hex()

	return ix.store.UpsertMarketplaceConfig(ctx, model.MarketplaceConfig{
		ChainID:        cc.ChainID,
		PlatformFeeBps: &fee,
		FeeRecipient:   &recipient,
	})
}
