package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"agentscan/internal/chain"
	"agentscan/internal/model"
)

type rangeKey struct {
	from uint64
	to   uint64
}

// fakeRPC serves canned logs per block range and can be told to fail
// specific ranges a number of times.
type fakeRPC struct {
	mu           sync.Mutex
	latest       uint64
	logs         map[rangeKey][]types.Log
	failLeft     map[rangeKey]int
	failContract map[common.Address]int
	callData     map[string][]byte
	dials        int
	tsFailing    bool
}

func newFakeRPC(latest uint64) *fakeRPC {
	return &fakeRPC{
		latest:       latest,
		logs:         make(map[rangeKey][]types.Log),
		failLeft:     make(map[rangeKey]int),
		failContract: make(map[common.Address]int),
		callData:     make(map[string][]byte),
	}
}

func (f *fakeRPC) factory(context.Context, string) (chain.RPC, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	return f, nil
}

func (f *fakeRPC) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (f *fakeRPC) LatestBlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeRPC) BlockTimestamp(_ context.Context, number uint64) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tsFailing {
		return time.Time{}, fmt.Errorf("header fetch failed")
	}
	return time.Unix(int64(number)*10, 0).UTC(), nil
}

func (f *fakeRPC) FilterLogs(_ context.Context, fromBlock, toBlock uint64, addresses []common.Address, _ []common.Hash) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rangeKey{fromBlock, toBlock}
	if left := f.failLeft[key]; left > 0 {
		f.failLeft[key] = left - 1
		return nil, fmt.Errorf("rpc unavailable for [%d, %d]", fromBlock, toBlock)
	}
	for _, addr := range addresses {
		if left := f.failContract[addr]; left > 0 {
			f.failContract[addr] = left - 1
			return nil, fmt.Errorf("rpc unavailable for %s", addr.Hex())
		}
	}

	matched := make([]types.Log, 0, len(f.logs[key]))
	for _, log := range f.logs[key] {
		if len(addresses) == 0 {
			matched = append(matched, log)
			continue
		}
		for _, addr := range addresses {
			if log.Address == addr {
				matched = append(matched, log)
				break
			}
		}
	}
	return matched, nil
}

func (f *fakeRPC) addLog(fromBlock, toBlock uint64, log types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rangeKey{fromBlock, toBlock}
	f.logs[key] = append(f.logs[key], log)
}

func (f *fakeRPC) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, ok := f.callData[common.Bytes2Hex(msg.Data)]
	if !ok {
		return nil, fmt.Errorf("no contract answer")
	}
	return out, nil
}

func (f *fakeRPC) Close() {}

type cursorKey struct {
	chainID  int64
	contract string
}

type feedbackKey struct {
	chainID       int64
	agentID       int64
	client        string
	feedbackIndex int64
}

type entityKey struct {
	chainID int64
	id      int64
}

type logKey struct {
	chainID  int64
	txHash   string
	logIndex int64
}

// fakeStore is an in-memory Store with the same idempotence and
// terminal-status semantics as the Postgres implementation.
type fakeStore struct {
	mu sync.Mutex

	cursors       map[cursorKey]int64
	agents        map[entityKey]model.Agent
	metadataSets  map[entityKey]map[string]string
	profiles      map[entityKey]model.AgentProfile
	feedbacks     map[feedbackKey]model.Feedback
	responses     map[logKey]model.FeedbackResponse
	activities    map[logKey]model.Activity
	listings      map[entityKey]model.Listing
	offers        map[entityKey]model.Offer
	collOffers    map[entityKey]model.CollectionOffer
	auctions      map[entityKey]model.Auction
	bids          map[logKey]model.AuctionBid
	dutchAuctions map[entityKey]model.DutchAuction
	bundles       map[entityKey]model.Bundle
	mktConfigs    map[int64]model.MarketplaceConfig
	paymentTokens map[string]bool

	failSaves bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cursors:       make(map[cursorKey]int64),
		agents:        make(map[entityKey]model.Agent),
		metadataSets:  make(map[entityKey]map[string]string),
		profiles:      make(map[entityKey]model.AgentProfile),
		feedbacks:     make(map[feedbackKey]model.Feedback),
		responses:     make(map[logKey]model.FeedbackResponse),
		activities:    make(map[logKey]model.Activity),
		listings:      make(map[entityKey]model.Listing),
		offers:        make(map[entityKey]model.Offer),
		collOffers:    make(map[entityKey]model.CollectionOffer),
		auctions:      make(map[entityKey]model.Auction),
		bids:          make(map[logKey]model.AuctionBid),
		dutchAuctions: make(map[entityKey]model.DutchAuction),
		bundles:       make(map[entityKey]model.Bundle),
		mktConfigs:    make(map[int64]model.MarketplaceConfig),
		paymentTokens: make(map[string]bool),
	}
}

func (s *fakeStore) Cursor(_ context.Context, chainID int64, contract string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.cursors[cursorKey{chainID, contract}]
	return last, ok, nil
}

func (s *fakeStore) SaveCursor(_ context.Context, chainID int64, contract, _ string, lastBlock int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return fmt.Errorf("save failed")
	}
	key := cursorKey{chainID, contract}
	if existing, ok := s.cursors[key]; !ok || lastBlock > existing {
		s.cursors[key] = lastBlock
	}
	return nil
}

func (s *fakeStore) UpsertAgent(_ context.Context, agent model.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{agent.ChainID, agent.AgentID}
	existing, ok := s.agents[key]
	if !ok {
		s.agents[key] = agent
		return nil
	}
	if agent.Owner != "" {
		existing.Owner = agent.Owner
	}
	if agent.AgentURI != nil {
		existing.AgentURI = agent.AgentURI
	}
	existing.Active = agent.Active
	existing.BlockNumber = agent.BlockNumber
	if agent.BlockTimestamp != nil {
		existing.BlockTimestamp = agent.BlockTimestamp
	}
	existing.TxHash = agent.TxHash
	s.agents[key] = existing
	return nil
}

func (s *fakeStore) SetAgentMetadataField(_ context.Context, chainID, agentID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity := entityKey{chainID, agentID}
	if s.metadataSets[entity] == nil {
		s.metadataSets[entity] = make(map[string]string)
	}
	s.metadataSets[entity][key] = value
	return nil
}

func (s *fakeStore) ApplyAgentProfile(_ context.Context, chainID, agentID int64, profile model.AgentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[entityKey{chainID, agentID}] = profile
	return nil
}

func (s *fakeStore) InsertFeedback(_ context.Context, feedback model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := feedbackKey{feedback.ChainID, feedback.AgentID, feedback.ClientAddress, feedback.FeedbackIndex}
	if _, ok := s.feedbacks[key]; ok {
		return nil
	}
	s.feedbacks[key] = feedback
	return nil
}

func (s *fakeStore) RevokeFeedback(_ context.Context, chainID, agentID int64, clientAddress string, feedbackIndex int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := feedbackKey{chainID, agentID, clientAddress, feedbackIndex}
	if feedback, ok := s.feedbacks[key]; ok {
		feedback.Revoked = true
		s.feedbacks[key] = feedback
	}
	return nil
}

func (s *fakeStore) InsertFeedbackResponse(_ context.Context, response model.FeedbackResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey{response.ChainID, response.TxHash, response.LogIndex}
	if _, ok := s.responses[key]; ok {
		return nil
	}
	s.responses[key] = response
	return nil
}

func (s *fakeStore) InsertActivity(_ context.Context, activity model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey{activity.ChainID, activity.TxHash, activity.LogIndex}
	if _, ok := s.activities[key]; ok {
		return nil
	}
	s.activities[key] = activity
	return nil
}

func (s *fakeStore) UpsertListing(_ context.Context, listing model.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{listing.ChainID, listing.ListingID}
	if existing, ok := s.listings[key]; ok {
		listing.Status = existing.Status
		listing.Buyer = existing.Buyer
		listing.SoldPrice = existing.SoldPrice
	}
	s.listings[key] = listing
	return nil
}

func (s *fakeStore) Listing(_ context.Context, chainID, listingID int64) (*model.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if listing, ok := s.listings[entityKey{chainID, listingID}]; ok {
		copied := listing
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) MarkListingSold(_ context.Context, chainID, listingID int64, buyer string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, listingID}
	if listing, ok := s.listings[key]; ok && listing.Status == model.StatusActive {
		listing.Status = model.StatusSold
		listing.Buyer = &buyer
		listing.SoldPrice = &price
		s.listings[key] = listing
	}
	return nil
}

func (s *fakeStore) UpdateListingStatus(_ context.Context, chainID, listingID int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, listingID}
	if listing, ok := s.listings[key]; ok && listing.Status == model.StatusActive {
		listing.Status = status
		s.listings[key] = listing
	}
	return nil
}

func (s *fakeStore) UpdateListingPrice(_ context.Context, chainID, listingID int64, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, listingID}
	if listing, ok := s.listings[key]; ok {
		listing.Price = price
		s.listings[key] = listing
	}
	return nil
}

func (s *fakeStore) UpsertOffer(_ context.Context, offer model.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{offer.ChainID, offer.OfferID}
	if existing, ok := s.offers[key]; ok {
		offer.Status = existing.Status
		offer.AcceptedBy = existing.AcceptedBy
	}
	s.offers[key] = offer
	return nil
}

func (s *fakeStore) MarkOfferAccepted(_ context.Context, chainID, offerID int64, seller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, offerID}
	if offer, ok := s.offers[key]; ok && offer.Status == model.StatusActive {
		offer.Status = model.StatusAccepted
		offer.AcceptedBy = &seller
		s.offers[key] = offer
	}
	return nil
}

func (s *fakeStore) UpdateOfferStatus(_ context.Context, chainID, offerID int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, offerID}
	if offer, ok := s.offers[key]; ok && offer.Status == model.StatusActive {
		offer.Status = status
		s.offers[key] = offer
	}
	return nil
}

func (s *fakeStore) UpsertCollectionOffer(_ context.Context, offer model.CollectionOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{offer.ChainID, offer.OfferID}
	if existing, ok := s.collOffers[key]; ok {
		offer.Status = existing.Status
		offer.AcceptedBy = existing.AcceptedBy
		offer.AcceptedTokenID = existing.AcceptedTokenID
	}
	s.collOffers[key] = offer
	return nil
}

func (s *fakeStore) MarkCollectionOfferAccepted(_ context.Context, chainID, offerID int64, seller string, tokenID decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, offerID}
	if offer, ok := s.collOffers[key]; ok && offer.Status == model.StatusActive {
		offer.Status = model.StatusAccepted
		offer.AcceptedBy = &seller
		offer.AcceptedTokenID = &tokenID
		s.collOffers[key] = offer
	}
	return nil
}

func (s *fakeStore) UpdateCollectionOfferStatus(_ context.Context, chainID, offerID int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, offerID}
	if offer, ok := s.collOffers[key]; ok && offer.Status == model.StatusActive {
		offer.Status = status
		s.collOffers[key] = offer
	}
	return nil
}

func (s *fakeStore) UpsertAuction(_ context.Context, auction model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{auction.ChainID, auction.AuctionID}
	if existing, ok := s.auctions[key]; ok {
		auction.Status = existing.Status
		auction.HighestBid = existing.HighestBid
		auction.HighestBidder = existing.HighestBidder
		auction.BidCount = existing.BidCount
		auction.Winner = existing.Winner
		auction.FinalPrice = existing.FinalPrice
	}
	s.auctions[key] = auction
	return nil
}

func (s *fakeStore) RecordBid(_ context.Context, bid model.AuctionBid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey{bid.ChainID, bid.TxHash, bid.LogIndex}
	if _, ok := s.bids[key]; ok {
		return nil
	}
	s.bids[key] = bid

	auctionKey := entityKey{bid.ChainID, bid.AuctionID}
	if auction, ok := s.auctions[auctionKey]; ok && auction.Status == model.StatusActive {
		amount := bid.Amount
		auction.HighestBid = &amount
		auction.HighestBidder = &bid.Bidder
		auction.BidCount++
		s.auctions[auctionKey] = auction
	}
	return nil
}

func (s *fakeStore) SettleAuction(_ context.Context, chainID, auctionID int64, winner string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, auctionID}
	if auction, ok := s.auctions[key]; ok && auction.Status == model.StatusActive {
		auction.Status = model.StatusEnded
		auction.Winner = &winner
		auction.FinalPrice = &amount
		s.auctions[key] = auction
	}
	return nil
}

func (s *fakeStore) UpdateAuctionStatus(_ context.Context, chainID, auctionID int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, auctionID}
	if auction, ok := s.auctions[key]; ok && auction.Status == model.StatusActive {
		auction.Status = status
		s.auctions[key] = auction
	}
	return nil
}

func (s *fakeStore) UpdateAuctionEndTime(_ context.Context, chainID, auctionID, endTime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, auctionID}
	if auction, ok := s.auctions[key]; ok {
		auction.EndTime = endTime
		s.auctions[key] = auction
	}
	return nil
}

func (s *fakeStore) UpsertDutchAuction(_ context.Context, auction model.DutchAuction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{auction.ChainID, auction.AuctionID}
	if existing, ok := s.dutchAuctions[key]; ok {
		auction.Status = existing.Status
		auction.Buyer = existing.Buyer
		auction.SoldPrice = existing.SoldPrice
	}
	s.dutchAuctions[key] = auction
	return nil
}

func (s *fakeStore) MarkDutchAuctionSold(_ context.Context, chainID, auctionID int64, buyer string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, auctionID}
	if auction, ok := s.dutchAuctions[key]; ok && auction.Status == model.StatusActive {
		auction.Status = model.StatusSold
		auction.Buyer = &buyer
		auction.SoldPrice = &price
		s.dutchAuctions[key] = auction
	}
	return nil
}

func (s *fakeStore) UpdateDutchAuctionStatus(_ context.Context, chainID, auctionID int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, auctionID}
	if auction, ok := s.dutchAuctions[key]; ok && auction.Status == model.StatusActive {
		auction.Status = status
		s.dutchAuctions[key] = auction
	}
	return nil
}

func (s *fakeStore) UpsertBundle(_ context.Context, bundle model.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{bundle.ChainID, bundle.BundleID}
	if existing, ok := s.bundles[key]; ok {
		bundle.Status = existing.Status
		bundle.Buyer = existing.Buyer
		bundle.SoldPrice = existing.SoldPrice
	}
	s.bundles[key] = bundle
	return nil
}

func (s *fakeStore) MarkBundleSold(_ context.Context, chainID, bundleID int64, buyer string, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, bundleID}
	if bundle, ok := s.bundles[key]; ok && bundle.Status == model.StatusActive {
		bundle.Status = model.StatusSold
		bundle.Buyer = &buyer
		bundle.SoldPrice = &price
		s.bundles[key] = bundle
	}
	return nil
}

func (s *fakeStore) UpdateBundleStatus(_ context.Context, chainID, bundleID int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{chainID, bundleID}
	if bundle, ok := s.bundles[key]; ok && bundle.Status == model.StatusActive {
		bundle.Status = status
		s.bundles[key] = bundle
	}
	return nil
}

func (s *fakeStore) UpsertMarketplaceConfig(_ context.Context, cfg model.MarketplaceConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.mktConfigs[cfg.ChainID]
	existing.ChainID = cfg.ChainID
	if cfg.PlatformFeeBps != nil {
		existing.PlatformFeeBps = cfg.PlatformFeeBps
	}
	if cfg.FeeRecipient != nil {
		existing.FeeRecipient = cfg.FeeRecipient
	}
	s.mktConfigs[cfg.ChainID] = existing
	return nil
}

func (s *fakeStore) SetPaymentToken(_ context.Context, chainID int64, token string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentTokens[fmt.Sprintf("%d:%s", chainID, token)] = active
	return nil
}

func (s *fakeStore) BlocksMissingTimestamps(context.Context) ([]model.BlockRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[model.BlockRef]bool)
	refs := make([]model.BlockRef, 0)
	for _, activity := range s.activities {
		if activity.BlockTimestamp == nil {
			ref := model.BlockRef{ChainID: activity.ChainID, BlockNumber: activity.BlockNumber}
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs, nil
}

func (s *fakeStore) FillBlockTimestamp(_ context.Context, ref model.BlockRef, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, activity := range s.activities {
		if activity.ChainID == ref.ChainID && activity.BlockNumber == ref.BlockNumber && activity.BlockTimestamp == nil {
			copied := ts
			activity.BlockTimestamp = &copied
			s.activities[key] = activity
		}
	}
	return nil
}
