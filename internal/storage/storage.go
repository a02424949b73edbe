package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"agentscan/internal/model"
)

// Store is the persistence surface of the indexer. All writes are
// idempotent so a block range can be replayed after a partial failure.
// Status updates that target a terminal state only apply while the row
// is still Active; a terminal row is never rewritten.
type Store interface {
	// Cursor returns the last indexed block for a contract on a chain.
	// The second result is false when no cursor exists yet.
	Cursor(ctx context.Context, chainID int64, contract string) (int64, bool, error)
	SaveCursor(ctx context.Context, chainID int64, contract, label string, lastBlock int64) error

	UpsertAgent(ctx context.Context, agent model.Agent) error
	SetAgentMetadataField(ctx context.Context, chainID, agentID int64, key, value string) error
	ApplyAgentProfile(ctx context.Context, chainID, agentID int64, profile model.AgentProfile) error

	InsertFeedback(ctx context.Context, feedback model.Feedback) error
	RevokeFeedback(ctx context.Context, chainID, agentID int64, clientAddress string, feedbackIndex int64) error
	InsertFeedbackResponse(ctx context.Context, response model.FeedbackResponse) error

	InsertActivity(ctx context.Context, activity model.Activity) error

	UpsertListing(ctx context.Context, listing model.Listing) error
	Listing(ctx context.Context, chainID, listingID int64) (*model.Listing, error)
	MarkListingSold(ctx context.Context, chainID, listingID int64, buyer string, price decimal.Decimal) error
	UpdateListingStatus(ctx context.Context, chainID, listingID int64, status model.Status) error
	UpdateListingPrice(ctx context.Context, chainID, listingID int64, price decimal.Decimal) error

	UpsertOffer(ctx context.Context, offer model.Offer) error
	MarkOfferAccepted(ctx context.Context, chainID, offerID int64, seller string) error
	UpdateOfferStatus(ctx context.Context, chainID, offerID int64, status model.Status) error

	UpsertCollectionOffer(ctx context.Context, offer model.CollectionOffer) error
	MarkCollectionOfferAccepted(ctx context.Context, chainID, offerID int64, seller string, tokenID decimal.Decimal) error
	UpdateCollectionOfferStatus(ctx context.Context, chainID, offerID int64, status model.Status) error

	UpsertAuction(ctx context.Context, auction model.Auction) error
	RecordBid(ctx context.Context, bid model.AuctionBid) error
	SettleAuction(ctx context.Context, chainID, auctionID int64, winner string, amount decimal.Decimal) error
	UpdateAuctionStatus(ctx context.Context, chainID, auctionID int64, status model.Status) error
	UpdateAuctionEndTime(ctx context.Context, chainID, auctionID, endTime int64) error

	UpsertDutchAuction(ctx context.Context, auction model.DutchAuction) error
	MarkDutchAuctionSold(ctx context.Context, chainID, auctionID int64, buyer string, price decimal.Decimal) error
	UpdateDutchAuctionStatus(ctx context.Context, chainID, auctionID int64, status model.Status) error

	UpsertBundle(ctx context.Context, bundle model.Bundle) error
	MarkBundleSold(ctx context.Context, chainID, bundleID int64, buyer string, price decimal.Decimal) error
	UpdateBundleStatus(ctx context.Context, chainID, bundleID int64, status model.Status) error

	UpsertMarketplaceConfig(ctx context.Context, cfg model.MarketplaceConfig) error
	SetPaymentToken(ctx context.Context, chainID int64, token string, active bool) error

	// BlocksMissingTimestamps lists every (chain, block) pair referenced
	// by a row whose block_timestamp is still null.
	BlocksMissingTimestamps(ctx context.Context) ([]model.BlockRef, error)
	FillBlockTimestamp(ctx context.Context, ref model.BlockRef, ts time.Time) error
}
