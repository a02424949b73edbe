package postgres

import (
	"context"

	"agentscan/internal/model"
)

// InsertFeedback records one feedback event. The natural key makes
// replays of the same block range no-ops.
func (s *Store) InsertFeedback(ctx context.Context, feedback model.Feedback) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedbacks (
			chain_id, agent_id, client_address, feedback_index,
			value, value_decimals, tag1, tag2, endpoint,
			feedback_uri, feedback_hash, revoked,
			block_number, block_timestamp, tx_hash, created_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		ON CONFLICT (chain_id, agent_id, client_address, feedback_index) DO NOTHING
	`,
		feedback.ChainID,
		feedback.AgentID,
		feedback.ClientAddress,
		feedback.FeedbackIndex,
		numString(feedback.Value),
		feedback.ValueDecimals,
		feedback.Tag1,
		feedback.Tag2,
		feedback.Endpoint,
		feedback.FeedbackURI,
		feedback.FeedbackHash,
		feedback.Revoked,
		feedback.BlockNumber,
		tsArg(feedback.BlockTimestamp),
		feedback.TxHash,
	)
	return err
}

// RevokeFeedback flags a feedback as revoked. Revoking a feedback that
// was never indexed is a no-op.
func (s *Store) RevokeFeedback(ctx context.Context, chainID, agentID int64, clientAddress string, feedbackIndex int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE feedbacks
		SET revoked = TRUE
		WHERE chain_id = $1 AND agent_id = $2 AND client_address = $3 AND feedback_index = $4
	`, chainID, agentID, clientAddress, feedbackIndex)
	return err
}

// InsertFeedbackResponse records one response appended to a feedback.
func (s *Store) InsertFeedbackResponse(ctx context.Context, response model.FeedbackResponse) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback_responses (
			chain_id, agent_id, client_address, feedback_index, responder,
			response_uri, response_hash,
			block_number, block_timestamp, tx_hash, log_index, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
	`,
		response.ChainID,
		response.AgentID,
		response.ClientAddress,
		response.FeedbackIndex,
		response.Responder,
		response.ResponseURI,
		response.ResponseHash,
		response.BlockNumber,
		tsArg(response.BlockTimestamp),
		response.TxHash,
		response.LogIndex,
	)
	return err
}

// InsertActivity appends one entry to the agent activity log,
// deduplicated by (chain_id, tx_hash, log_index).
func (s *Store) InsertActivity(ctx context.Context, activity model.Activity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agent_activity (
			chain_id, agent_id, event_type, event_data,
			block_number, block_timestamp, tx_hash, log_index, created_at
		) VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, now())
		ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
	`,
		activity.ChainID,
		activity.AgentID,
		activity.EventType,
		string(activity.EventData),
		activity.BlockNumber,
		tsArg(activity.BlockTimestamp),
		activity.TxHash,
		activity.LogIndex,
	)
	return err
}
