package model

import (
	"encoding/json"
	"time"
)

// Activity event types recorded in the per-agent activity log. The
// read API filters on these exact literals, so registry events carry
// the contract event name verbatim and marketplace cross-posts carry
// the marketplace: prefix.
const (
	ActivityRegistered       = "Registered"
	ActivityURIUpdated       = "URIUpdated"
	ActivityMetadataSet      = "MetadataSet"
	ActivityNewFeedback      = "NewFeedback"
	ActivityFeedbackRevoked  = "FeedbackRevoked"
	ActivityResponseAppended = "ResponseAppended"

	MarketplaceActivityPrefix = "marketplace:"
)

// MarketplaceActivity returns the activity event type for a
// marketplace event cross-posted into an agent's feed.
func MarketplaceActivity(eventName string) string {
	return MarketplaceActivityPrefix + eventName
}

// Activity is one append-only activity log entry for an agent.
// Entries are deduplicated by (chain_id, tx_hash, log_index).
type Activity struct {
	AgentID        int64
	ChainID        int64
	EventType      string
	EventData      json.RawMessage
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
	LogIndex       int64
}

// BlockRef identifies one block on one chain.
type BlockRef struct {
	ChainID     int64
	BlockNumber int64
}
