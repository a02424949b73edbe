package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Feedback is one reputation score given to an agent by a client.
// Value is the raw fixed-point integer from the event; ValueDecimals
// holds the scale so readers can normalize without losing precision.
type Feedback struct {
	AgentID        int64
	ChainID        int64
	ClientAddress  string
	FeedbackIndex  int64
	Value          decimal.Decimal
	ValueDecimals  int32
	Tag1           *string
	Tag2           *string
	Endpoint       *string
	FeedbackURI    *string
	FeedbackHash   *string
	Revoked        bool
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
}

// NormalizedValue scales Value by ValueDecimals for display purposes.
func (f Feedback) NormalizedValue() decimal.Decimal {
	return f.Value.Shift(-f.ValueDecimals)
}

// FeedbackResponse is an on-chain reply appended to an existing feedback.
type FeedbackResponse struct {
	AgentID        int64
	ChainID        int64
	ClientAddress  string
	FeedbackIndex  int64
	Responder      string
	ResponseURI    *string
	ResponseHash   *string
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
	LogIndex       int64
}
