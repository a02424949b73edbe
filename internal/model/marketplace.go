package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a marketplace entity. Entities start
// Active and move to exactly one terminal state; terminal states never
// transition again.
type Status string

const (
	StatusActive        Status = "Active"
	StatusSold          Status = "Sold"
	StatusAccepted      Status = "Accepted"
	StatusCancelled     Status = "Cancelled"
	StatusEnded         Status = "Ended"
	StatusReserveNotMet Status = "ReserveNotMet"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s != StatusActive
}

// Listing is a fixed-price sale of a single NFT.
type Listing struct {
	ListingID      int64
	ChainID        int64
	Seller         string
	NFTContract    string
	TokenID        decimal.Decimal
	PaymentToken   string
	Price          decimal.Decimal
	Expiry         int64
	Status         Status
	Buyer          *string
	SoldPrice      *decimal.Decimal
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
}

// Offer is a bid on a specific NFT.
type Offer struct {
	OfferID        int64
	ChainID        int64
	Offerer        string
	NFTContract    string
	TokenID        decimal.Decimal
	PaymentToken   string
	Amount         decimal.Decimal
	Expiry         int64
	Status         Status
	AcceptedBy     *string
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
}

// CollectionOffer is a bid on any NFT from a collection. The accepted
// token is only known once a seller accepts.
type CollectionOffer struct {
	OfferID         int64
	ChainID         int64
	Offerer         string
	NFTContract     string
	PaymentToken    string
	Amount          decimal.Decimal
	Expiry          int64
	Status          Status
	AcceptedBy      *string
	AcceptedTokenID *decimal.Decimal
	BlockNumber     int64
	BlockTimestamp  *time.Time
	TxHash          string
}

// Auction is an english auction over a single NFT.
type Auction struct {
	AuctionID      int64
	ChainID        int64
	Seller         string
	NFTContract    string
	TokenID        decimal.Decimal
	PaymentToken   string
	StartPrice     decimal.Decimal
	ReservePrice   decimal.Decimal
	BuyNowPrice    decimal.Decimal
	StartTime      int64
	EndTime        int64
	Status         Status
	HighestBid     *decimal.Decimal
	HighestBidder  *string
	BidCount       int32
	Winner         *string
	FinalPrice     *decimal.Decimal
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
}

// AuctionBid is one bid placed on an auction, kept as history.
type AuctionBid struct {
	AuctionID      int64
	ChainID        int64
	Bidder         string
	Amount         decimal.Decimal
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
	LogIndex       int64
}

// DutchAuction is a declining-price sale of a single NFT.
type DutchAuction struct {
	AuctionID      int64
	ChainID        int64
	Seller         string
	NFTContract    string
	TokenID        decimal.Decimal
	PaymentToken   string
	StartPrice     decimal.Decimal
	EndPrice       decimal.Decimal
	StartTime      int64
	EndTime        int64
	Status         Status
	Buyer          *string
	SoldPrice      *decimal.Decimal
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
}

// Bundle is a fixed-price sale of multiple NFTs sold together.
// NFTContracts and TokenIDs are parallel slices resolved from the
// contract at listing time; both may be empty when the lookup failed.
type Bundle struct {
	BundleID       int64
	ChainID        int64
	Seller         string
	NFTContracts   []string
	TokenIDs       []decimal.Decimal
	ItemCount      int32
	PaymentToken   string
	Price          decimal.Decimal
	Expiry         int64
	Status         Status
	Buyer          *string
	SoldPrice      *decimal.Decimal
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
}

// MarketplaceConfig mirrors the contract-level fee settings per chain.
type MarketplaceConfig struct {
	ChainID        int64
	PlatformFeeBps *int32
	FeeRecipient   *string
}
