package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"agentscan/internal/model"
)

// UpsertListing inserts or refreshes a fixed-price listing. A replay
// never resets the status of a row that already reached a terminal
// state.
func (s *Store) UpsertListing(ctx context.Context, listing model.Listing) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO listings (
			chain_id, listing_id, seller, nft_contract, token_id, payment_token,
			price, expiry, status, block_number, block_timestamp, tx_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8, $9, $10, $11, $12, now(), now())
		ON CONFLICT (chain_id, listing_id)
		DO UPDATE SET
			seller = EXCLUDED.seller,
			nft_contract = EXCLUDED.nft_contract,
			token_id = EXCLUDED.token_id,
			payment_token = EXCLUDED.payment_token,
			price = EXCLUDED.price,
			expiry = EXCLUDED.expiry,
			block_timestamp = COALESCE(EXCLUDED.block_timestamp, listings.block_timestamp),
			updated_at = now()
	`,
		listing.ChainID,
		listing.ListingID,
		listing.Seller,
		listing.NFTContract,
		numString(listing.TokenID),
		listing.PaymentToken,
		numString(listing.Price),
		listing.Expiry,
		string(listing.Status),
		listing.BlockNumber,
		tsArg(listing.BlockTimestamp),
		listing.TxHash,
	)
	return err
}

// Listing fetches one listing, or nil when it was never indexed.
func (s *Store) Listing(ctx context.Context, chainID, listingID int64) (*model.Listing, error) {
	var (
		listing  model.Listing
		tokenID  string
		price    string
		status   string
	)
	row := s.pool.QueryRow(ctx, `
		SELECT chain_id, listing_id, seller, nft_contract, token_id::text, payment_token,
		       price::text, expiry, status, block_number, block_timestamp, tx_hash
		FROM listings
		WHERE chain_id = $1 AND listing_id = $2
	`, chainID, listingID)
	err := row.Scan(
		&listing.ChainID,
		&listing.ListingID,
		&listing.Seller,
		&listing.NFTContract,
		&tokenID,
		&listing.PaymentToken,
		&price,
		&listing.Expiry,
		&status,
		&listing.BlockNumber,
		&listing.BlockTimestamp,
		&listing.TxHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	listing.TokenID, err = decimal.NewFromString(tokenID)
	if err != nil {
		return nil, err
	}
	listing.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	listing.Status = model.Status(status)
	return &listing, nil
}

// MarkListingSold moves an active listing to Sold.
func (s *Store) MarkListingSold(ctx context.Context, chainID, listingID int64, buyer string, price decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE listings
		SET status = 'Sold', buyer = $3, sold_price = $4::numeric, updated_at = now()
		WHERE chain_id = $1 AND listing_id = $2 AND status = 'Active'
	`, chainID, listingID, buyer, numString(price))
	return err
}

// UpdateListingStatus applies a terminal status to an active listing.
func (s *Store) UpdateListingStatus(ctx context.Context, chainID, listingID int64, status model.Status) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE listings
		SET status = $3, updated_at = now()
		WHERE chain_id = $1 AND listing_id = $2 AND status = 'Active'
	`, chainID, listingID, string(status))
	return err
}

// UpdateListingPrice changes the asking price of a listing.
func (s *Store) UpdateListingPrice(ctx context.Context, chainID, listingID int64, price decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE listings
		SET price = $3::numeric, updated_at = now()
		WHERE chain_id = $1 AND listing_id = $2
	`, chainID, listingID, numString(price))
	return err
}

// UpsertOffer inserts or refreshes an offer on a specific NFT.
func (s *Store) UpsertOffer(ctx context.Context, offer model.Offer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO offers (
			chain_id, offer_id, offerer, nft_contract, token_id, payment_token,
			amount, expiry, status, block_number, block_timestamp, tx_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8, $9, $10, $11, $12, now(), now())
		ON CONFLICT (chain_id, offer_id)
		DO UPDATE SET
			offerer = EXCLUDED.offerer,
			nft_contract = EXCLUDED.nft_contract,
			token_id = EXCLUDED.token_id,
			payment_token = EXCLUDED.payment_token,
			amount = EXCLUDED.amount,
			expiry = EXCLUDED.expiry,
			block_timestamp = COALESCE(EXCLUDED.block_timestamp, offers.block_timestamp),
			updated_at = now()
	`,
		offer.ChainID,
		offer.OfferID,
		offer.Offerer,
		offer.NFTContract,
		numString(offer.TokenID),
		offer.PaymentToken,
		numString(offer.Amount),
		offer.Expiry,
		string(offer.Status),
		offer.BlockNumber,
		tsArg(offer.BlockTimestamp),
		offer.TxHash,
	)
	return err
}

// MarkOfferAccepted moves an active offer to Accepted.
func (s *Store) MarkOfferAccepted(ctx context.Context, chainID, offerID int64, seller string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE offers
		SET status = 'Accepted', accepted_by = $3, updated_at = now()
		WHERE chain_id = $1 AND offer_id = $2 AND status = 'Active'
	`, chainID, offerID, seller)
	return err
}

// UpdateOfferStatus applies a terminal status to an active offer.
func (s *Store) UpdateOfferStatus(ctx context.Context, chainID, offerID int64, status model.Status) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE offers
		SET status = $3, updated_at = now()
		WHERE chain_id = $1 AND offer_id = $2 AND status = 'Active'
	`, chainID, offerID, string(status))
	return err
}

// UpsertCollectionOffer inserts or refreshes a collection-wide offer.
func (s *Store) UpsertCollectionOffer(ctx context.Context, offer model.CollectionOffer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collection_offers (
			chain_id, offer_id, offerer, nft_contract, payment_token,
			amount, expiry, status, block_number, block_timestamp, tx_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, now(), now())
		ON CONFLICT (chain_id, offer_id)
		DO UPDATE SET
			offerer = EXCLUDED.offerer,
			nft_contract = EXCLUDED.nft_contract,
			payment_token = EXCLUDED.payment_token,
			amount = EXCLUDED.amount,
			expiry = EXCLUDED.expiry,
			block_timestamp = COALESCE(EXCLUDED.block_timestamp, collection_offers.block_timestamp),
			updated_at = now()
	`,
		offer.ChainID,
		offer.OfferID,
		offer.Offerer,
		offer.NFTContract,
		offer.PaymentToken,
		numString(offer.Amount),
		offer.Expiry,
		string(offer.Status),
		offer.BlockNumber,
		tsArg(offer.BlockTimestamp),
		offer.TxHash,
	)
	return err
}

// MarkCollectionOfferAccepted moves an active collection offer to
// Accepted and records which token settled it.
func (s *Store) MarkCollectionOfferAccepted(ctx context.Context, chainID, offerID int64, seller string, tokenID decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE collection_offers
		SET status = 'Accepted', accepted_by = $3, accepted_token_id = $4::numeric, updated_at = now()
		WHERE chain_id = $1 AND offer_id = $2 AND status = 'Active'
	`, chainID, offerID, seller, numString(tokenID))
	return err
}

// UpdateCollectionOfferStatus applies a terminal status to an active
// collection offer.
func (s *Store) UpdateCollectionOfferStatus(ctx context.Context, chainID, offerID int64, status model.Status) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE collection_offers
		SET status = $3, updated_at = now()
		WHERE chain_id = $1 AND offer_id = $2 AND status = 'Active'
	`, chainID, offerID, string(status))
	return err
}

// UpsertAuction inserts or refreshes an english auction.
func (s *Store) UpsertAuction(ctx context.Context, auction model.Auction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auctions (
			chain_id, auction_id, seller, nft_contract, token_id, payment_token,
			start_price, reserve_price, buy_now_price, start_time, end_time,
			status, bid_count, block_number, block_timestamp, tx_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8::numeric, $9::numeric, $10, $11, $12, $13, $14, $15, $16, now(), now())
		ON CONFLICT (chain_id, auction_id)
		DO UPDATE SET
			seller = EXCLUDED.seller,
			nft_contract = EXCLUDED.nft_contract,
			token_id = EXCLUDED.token_id,
			payment_token = EXCLUDED.payment_token,
			start_price = EXCLUDED.start_price,
			reserve_price = EXCLUDED.reserve_price,
			buy_now_price = EXCLUDED.buy_now_price,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			block_timestamp = COALESCE(EXCLUDED.block_timestamp, auctions.block_timestamp),
			updated_at = now()
	`,
		auction.ChainID,
		auction.AuctionID,
		auction.Seller,
		auction.NFTContract,
		numString(auction.TokenID),
		auction.PaymentToken,
		numString(auction.StartPrice),
		numString(auction.ReservePrice),
		numString(auction.BuyNowPrice),
		auction.StartTime,
		auction.EndTime,
		string(auction.Status),
		auction.BidCount,
		auction.BlockNumber,
		tsArg(auction.BlockTimestamp),
		auction.TxHash,
	)
	return err
}

// RecordBid stores one bid and rolls the auction's highest bid forward.
// A replayed bid is detected on the bid history key and leaves the
// auction untouched.
func (s *Store) RecordBid(ctx context.Context, bid model.AuctionBid) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO auction_bids (
			chain_id, auction_id, bidder, amount,
			block_number, block_timestamp, tx_hash, log_index, created_at
		) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, now())
		ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
	`,
		bid.ChainID,
		bid.AuctionID,
		bid.Bidder,
		numString(bid.Amount),
		bid.BlockNumber,
		tsArg(bid.BlockTimestamp),
		bid.TxHash,
		bid.LogIndex,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE auctions
		SET highest_bid = $3::numeric, highest_bidder = $4, bid_count = bid_count + 1, updated_at = now()
		WHERE chain_id = $1 AND auction_id = $2 AND status = 'Active'
	`, bid.ChainID, bid.AuctionID, numString(bid.Amount), bid.Bidder)
	return err
}

// SettleAuction ends an active auction, recording the winner and the
// final price.
func (s *Store) SettleAuction(ctx context.Context, chainID, auctionID int64, winner string, amount decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE auctions
		SET status = 'Ended', winner = $3, final_price = $4::numeric, updated_at = now()
		WHERE chain_id = $1 AND auction_id = $2 AND status = 'Active'
	`, chainID, auctionID, winner, numString(amount))
	return err
}

// UpdateAuctionStatus applies a terminal status to an active auction.
func (s *Store) UpdateAuctionStatus(ctx context.Context, chainID, auctionID int64, status model.Status) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE auctions
		SET status = $3, updated_at = now()
		WHERE chain_id = $1 AND auction_id = $2 AND status = 'Active'
	`, chainID, auctionID, string(status))
	return err
}

// UpdateAuctionEndTime extends a running auction.
func (s *Store) UpdateAuctionEndTime(ctx context.Context, chainID, auctionID, endTime int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE auctions
		SET end_time = $3, updated_at = now()
		WHERE chain_id = $1 AND auction_id = $2
	`, chainID, auctionID, endTime)
	return err
}

// UpsertDutchAuction inserts or refreshes a declining-price auction.
func (s *Store) UpsertDutchAuction(ctx context.Context, auction model.DutchAuction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dutch_auctions (
			chain_id, auction_id, seller, nft_contract, token_id, payment_token,
			start_price, end_price, start_time, end_time,
			status, block_number, block_timestamp, tx_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7::numeric, $8::numeric, $9, $10, $11, $12, $13, $14, now(), now())
		ON CONFLICT (chain_id, auction_id)
		DO UPDATE SET
			seller = EXCLUDED.seller,
			nft_contract = EXCLUDED.nft_contract,
			token_id = EXCLUDED.token_id,
			payment_token = EXCLUDED.payment_token,
			start_price = EXCLUDED.start_price,
			end_price = EXCLUDED.end_price,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			block_timestamp = COALESCE(EXCLUDED.block_timestamp, dutch_auctions.block_timestamp),
			updated_at = now()
	`,
		auction.ChainID,
		auction.AuctionID,
		auction.Seller,
		auction.NFTContract,
		numString(auction.TokenID),
		auction.PaymentToken,
		numString(auction.StartPrice),
		numString(auction.EndPrice),
		auction.StartTime,
		auction.EndTime,
		string(auction.Status),
		auction.BlockNumber,
		tsArg(auction.BlockTimestamp),
		auction.TxHash,
	)
	return err
}

// MarkDutchAuctionSold moves an active dutch auction to Sold.
func (s *Store) MarkDutchAuctionSold(ctx context.Context, chainID, auctionID int64, buyer string, price decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE dutch_auctions
		SET status = 'Sold', buyer = $3, sold_price = $4::numeric, updated_at = now()
		WHERE chain_id = $1 AND auction_id = $2 AND status = 'Active'
	`, chainID, auctionID, buyer, numString(price))
	return err
}

// UpdateDutchAuctionStatus applies a terminal status to an active dutch
// auction.
func (s *Store) UpdateDutchAuctionStatus(ctx context.Context, chainID, auctionID int64, status model.Status) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE dutch_auctions
		SET status = $3, updated_at = now()
		WHERE chain_id = $1 AND auction_id = $2 AND status = 'Active'
	`, chainID, auctionID, string(status))
	return err
}

// UpsertBundle inserts or refreshes a bundle listing.
func (s *Store) UpsertBundle(ctx context.Context, bundle model.Bundle) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bundles (
			chain_id, bundle_id, seller, nft_contracts, token_ids, item_count,
			payment_token, price, expiry, status,
			block_number, block_timestamp, tx_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::numeric[], $6, $7, $8::numeric, $9, $10, $11, $12, $13, now(), now())
		ON CONFLICT (chain_id, bundle_id)
		DO UPDATE SET
			seller = EXCLUDED.seller,
			nft_contracts = EXCLUDED.nft_contracts,
			token_ids = EXCLUDED.token_ids,
			item_count = EXCLUDED.item_count,
			payment_token = EXCLUDED.payment_token,
			price = EXCLUDED.price,
			expiry = EXCLUDED.expiry,
			block_timestamp = COALESCE(EXCLUDED.block_timestamp, bundles.block_timestamp),
			updated_at = now()
	`,
		bundle.ChainID,
		bundle.BundleID,
		bundle.Seller,
		bundle.NFTContracts,
		numStrings(bundle.TokenIDs),
		bundle.ItemCount,
		bundle.PaymentToken,
		numString(bundle.Price),
		bundle.Expiry,
		string(bundle.Status),
		bundle.BlockNumber,
		tsArg(bundle.BlockTimestamp),
		bundle.TxHash,
	)
	return err
}

// MarkBundleSold moves an active bundle to Sold.
func (s *Store) MarkBundleSold(ctx context.Context, chainID, bundleID int64, buyer string, price decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE bundles
		SET status = 'Sold', buyer = $3, sold_price = $4::numeric, updated_at = now()
		WHERE chain_id = $1 AND bundle_id = $2 AND status = 'Active'
	`, chainID, bundleID, buyer, numString(price))
	return err
}

// UpdateBundleStatus applies a terminal status to an active bundle.
func (s *Store) UpdateBundleStatus(ctx context.Context, chainID, bundleID int64, status model.Status) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE bundles
		SET status = $3, updated_at = now()
		WHERE chain_id = $1 AND bundle_id = $2 AND status = 'Active'
	`, chainID, bundleID, string(status))
	return err
}

// UpsertMarketplaceConfig mirrors the contract fee settings for a chain.
func (s *Store) UpsertMarketplaceConfig(ctx context.Context, cfg model.MarketplaceConfig) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO marketplace_config (chain_id, platform_fee_bps, fee_recipient, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chain_id)
		DO UPDATE SET
			platform_fee_bps = COALESCE(EXCLUDED.platform_fee_bps, marketplace_config.platform_fee_bps),
			fee_recipient = COALESCE(EXCLUDED.fee_recipient, marketplace_config.fee_recipient),
			updated_at = now()
	`, cfg.ChainID, cfg.PlatformFeeBps, cfg.FeeRecipient)
	return err
}

// SetPaymentToken marks a payment token accepted or removed.
func (s *Store) SetPaymentToken(ctx context.Context, chainID int64, token string, active bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payment_tokens (chain_id, token_address, active, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chain_id, token_address)
		DO UPDATE SET active = EXCLUDED.active, updated_at = now()
	`, chainID, token, active)
	return err
}
