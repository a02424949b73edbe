package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"agentscan/internal/chain"
	"agentscan/internal/config"
	"agentscan/internal/contracts"
	"agentscan/internal/metrics"
	"agentscan/internal/model"
)

// applyReputationLog dispatches one reputation registry log.
func (ix *Indexer) applyReputationLog(ctx context.Context, cc config.ChainConfig, client chain.RPC, log types.Log) error {
	contractABI, err := contracts.ReputationABI()
	if err != nil {
		return err
	}

	event, err := contracts.DecodeLog(contractABI, log)
	if err != nil {
		metrics.DecodeFailures.WithLabelValues(cc.Name, "ReputationRegistry").Inc()
		ix.logger.Warn("skipping undecodable reputation log",
			zap.String("chain", cc.Name),
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Error(err),
		)
		return nil
	}

	meta := ix.logMeta(ctx, client, log)

	switch event.Name {
	case "NewFeedback":
		return ix.applyNewFeedback(ctx, cc, event, meta)
	case "FeedbackRevoked":
		return ix.applyFeedbackRevoked(ctx, cc, event, meta)
	case "ResponseAppended":
		return ix.applyResponseAppended(ctx, cc, event, meta)
	default:
		return nil
	}
}

func (ix *Indexer) applyNewFeedback(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	agentID, err := event.Int64("agentId")
	if err != nil {
		return err
	}
	client, err := event.Address("clientAddress")
	if err != nil {
		return err
	}
	feedbackIndex, err := event.Int64("feedbackIndex")
	if err != nil {
		return err
	}
	value, err := event.Decimal("value")
	if err != nil {
		return err
	}
	valueDecimals, err := event.Int64("valueDecimals")
	if err != nil {
		return err
	}
	tag1, err := event.String("tag1")
	if err != nil {
		return err
	}
	tag2, err := event.String("tag2")
	if err != nil {
		return err
	}
	endpoint, err := event.String("endpoint")
	if err != nil {
		return err
	}
	feedbackURI, err := event.String("feedbackURI")
	if err != nil {
		return err
	}
	feedbackHash, err := event.Hash("feedbackHash")
	if err != nil {
		return err
	}

	feedback := model.Feedback{
		AgentID:        agentID,
		ChainID:        cc.ChainID,
		ClientAddress:  client,
		FeedbackIndex:  feedbackIndex,
		Value:          value,
		ValueDecimals:  int32(valueDecimals),
		Tag1:           strPtr(tag1),
		Tag2:           strPtr(tag2),
		Endpoint:       strPtr(endpoint),
		FeedbackURI:    strPtr(feedbackURI),
		FeedbackHash:   strPtr(feedbackHash),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	}
	if err := ix.store.InsertFeedback(ctx, feedback); err != nil {
		return err
	}

	// The stored value stays the raw fixed-point integer; the activity
	// feed carries a display-friendly normalization.
	return ix.store.InsertActivity(ctx, model.Activity{
		AgentID:   agentID,
		ChainID:   cc.ChainID,
		EventType: model.ActivityNewFeedback,
		EventData: activityData(map[string]interface{}{
			"client_address": client,
			"feedback_index": feedbackIndex,
			"value":          feedback.Value.String(),
			"value_decimals": valueDecimals,
			"normalized":     feedback.NormalizedValue().InexactFloat64(),
			"tag1":           tag1,
			"tag2":           tag2,
			"endpoint":       endpoint,
		}),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	})
}

func (ix *Indexer) applyFeedbackRevoked(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	agentID, err := event.Int64("agentId")
	if err != nil {
		return err
	}
	client, err := event.Address("clientAddress")
	if err != nil {
		return err
	}
	feedbackIndex, err := event.Int64("feedbackIndex")
	if err != nil {
		return err
	}

	// Revoking a feedback this indexer never saw is a no-op.
	if err := ix.store.RevokeFeedback(ctx, cc.ChainID, agentID, client, feedbackIndex); err != nil {
		return err
	}

	return ix.store.InsertActivity(ctx, model.Activity{
		AgentID:   agentID,
		ChainID:   cc.ChainID,
		EventType: model.ActivityFeedbackRevoked,
		EventData: activityData(map[string]interface{}{
			"client_address": client,
			"feedback_index": feedbackIndex,
		}),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	})
}

func (ix *Indexer) applyResponseAppended(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	agentID, err := event.Int64("agentId")
	if err != nil {
		return err
	}
	client, err := event.Address("clientAddress")
	if err != nil {
		return err
	}
	feedbackIndex, err := event.Int64("feedbackIndex")
	if err != nil {
		return err
	}
	responder, err := event.Address("responder")
	if err != nil {
		return err
	}
	responseURI, err := event.String("responseURI")
	if err != nil {
		return err
	}
	responseHash, err := event.Hash("responseHash")
	if err != nil {
		return err
	}

	response := model.FeedbackResponse{
		AgentID:        agentID,
		ChainID:        cc.ChainID,
		ClientAddress:  client,
		FeedbackIndex:  feedbackIndex,
		Responder:      responder,
		ResponseURI:    strPtr(responseURI),
		ResponseHash:   strPtr(responseHash),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	}
	if err := ix.store.InsertFeedbackResponse(ctx, response); err != nil {
		return err
	}

	return ix.store.InsertActivity(ctx, model.Activity{
		AgentID:   agentID,
		ChainID:   cc.ChainID,
		EventType: model.ActivityResponseAppended,
		EventData: activityData(map[string]interface{}{
			"client_address": client,
			"feedback_index": feedbackIndex,
			"responder":      responder,
		}),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	})
}
