package indexer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"agentscan/internal/chain"
	"agentscan/internal/config"
	"agentscan/internal/contracts"
	"agentscan/internal/metrics"
	"agentscan/internal/model"
)

// applyIdentityLog dispatches one identity registry log. A log that
// does not decode is counted and skipped so a single malformed event
// cannot wedge the cursor.
func (ix *Indexer) applyIdentityLog(ctx context.Context, cc config.ChainConfig, client chain.RPC, log types.Log) error {
	contractABI, err := contracts.IdentityABI()
	if err != nil {
		return err
	}

	event, err := contracts.DecodeLog(contractABI, log)
	if err != nil {
		metrics.DecodeFailures.WithLabelValues(cc.Name, "IdentityRegistry").Inc()
		ix.logger.Warn("skipping undecodable identity log",
			zap.String("chain", cc.Name),
			zap.String("tx_hash", log.TxHash.Hex()),
			zap.Error(err),
		)
		return nil
	}

	meta := ix.logMeta(ctx, client, log)

	switch event.Name {
	case "Registered":
		return ix.applyRegistered(ctx, cc, event, meta)
	case "URIUpdated":
		return ix.applyURIUpdated(ctx, cc, event, meta)
	case "MetadataSet":
		return ix.applyMetadataSet(ctx, cc, event, meta)
	default:
		return nil
	}
}

func (ix *Indexer) applyRegistered(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	agentID, err := event.Int64("agentId")
	if err != nil {
		return err
	}
	owner, err := event.Address("owner")
	if err != nil {
		return err
	}
	agentURI, err := event.String("agentURI")
	if err != nil {
		return err
	}

	agent := model.Agent{
		AgentID:        agentID,
		ChainID:        cc.ChainID,
		Owner:          owner,
		AgentURI:       strPtr(agentURI),
		Active:         true,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	}
	if err := ix.store.UpsertAgent(ctx, agent); err != nil {
		return err
	}

	if err := ix.store.InsertActivity(ctx, model.Activity{
		AgentID:   agentID,
		ChainID:   cc.ChainID,
		EventType: model.ActivityRegistered,
		EventData: activityData(map[string]interface{}{
			"owner":     owner,
			"agent_uri": agentURI,
		}),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	}); err != nil {
		return err
	}

	ix.resolveAgentURI(cc.ChainID, agentID, agentURI)
	return nil
}

func (ix *Indexer) applyURIUpdated(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	agentID, err := event.Int64("agentId")
	if err != nil {
		return err
	}
	newURI, err := event.String("newURI")
	if err != nil {
		return err
	}
	updatedBy, err := event.Address("updatedBy")
	if err != nil {
		return err
	}

	// Owner stays whatever registration recorded; the empty string is
	// the "unknown here" sentinel.
	agent := model.Agent{
		AgentID:        agentID,
		ChainID:        cc.ChainID,
		Owner:          "",
		AgentURI:       strPtr(newURI),
		Active:         true,
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
	}
	if err := ix.store.UpsertAgent(ctx, agent); err != nil {
		return err
	}

	if err := ix.store.InsertActivity(ctx, model.Activity{
		AgentID:   agentID,
		ChainID:   cc.ChainID,
		EventType: model.ActivityURIUpdated,
		EventData: activityData(map[string]interface{}{
			"new_uri":    newURI,
			"updated_by": updatedBy,
		}),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	}); err != nil {
		return err
	}

	ix.resolveAgentURI(cc.ChainID, agentID, newURI)
	return nil
}

func (ix *Indexer) applyMetadataSet(ctx context.Context, cc config.ChainConfig, event *contracts.Event, meta eventMeta) error {
	agentID, err := event.Int64("agentId")
	if err != nil {
		return err
	}
	key, err := event.String("metadataKey")
	if err != nil {
		return err
	}
	value, err := event.String("metadataValue")
	if err != nil {
		return err
	}

	if err := ix.store.SetAgentMetadataField(ctx, cc.ChainID, agentID, key, value); err != nil {
		return err
	}

	return ix.store.InsertActivity(ctx, model.Activity{
		AgentID:   agentID,
		ChainID:   cc.ChainID,
		EventType: model.ActivityMetadataSet,
		EventData: activityData(map[string]interface{}{
			"key":   key,
			"value": value,
		}),
		BlockNumber:    meta.blockNumber,
		BlockTimestamp: meta.timestamp,
		TxHash:         meta.txHash,
		LogIndex:       meta.logIndex,
	})
}

// resolveAgentURI kicks off a fire-and-forget resolution of the agent
// document. Failures are logged and counted, never propagated; the
// indexing path does not wait for remote documents.
func (ix *Indexer) resolveAgentURI(chainID, agentID int64, uri string) {
	if ix.resolver == nil || uri == "" {
		return
	}
	ix.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := ix.resolver.Resolve(ctx, chainID, agentID, uri); err != nil {
			metrics.MetadataFetches.WithLabelValues("error").Inc()
			ix.logger.Warn("agent uri resolution failed",
				zap.Int64("chain_id", chainID),
				zap.Int64("agent_id", agentID),
				zap.Error(err),
			)
			return
		}
		metrics.MetadataFetches.WithLabelValues("ok").Inc()
	})
}

func activityData(fields map[string]interface{}) json.RawMessage {
	raw, err := json.Marshal(fields)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
