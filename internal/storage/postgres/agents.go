package postgres

import (
	"context"

	"agentscan/internal/model"
)

// UpsertAgent inserts or refreshes an agent row from a registry event.
// The empty owner string is a sentinel for "owner unknown at this
// event" and never overwrites a previously stored owner. Profile
// columns resolved from the agent URI are left untouched.
func (s *Store) UpsertAgent(ctx context.Context, agent model.Agent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agents (
			chain_id, agent_id, owner, agent_uri, active,
			block_number, block_timestamp, tx_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (chain_id, agent_id)
		DO UPDATE SET
			owner = CASE WHEN EXCLUDED.owner = '' THEN agents.owner ELSE EXCLUDED.owner END,
			agent_uri = COALESCE(EXCLUDED.agent_uri, agents.agent_uri),
			active = EXCLUDED.active,
			block_number = EXCLUDED.block_number,
			block_timestamp = COALESCE(EXCLUDED.block_timestamp, agents.block_timestamp),
			tx_hash = EXCLUDED.tx_hash,
			updated_at = now()
	`,
		agent.ChainID,
		agent.AgentID,
		agent.Owner,
		agent.AgentURI,
		agent.Active,
		agent.BlockNumber,
		tsArg(agent.BlockTimestamp),
		agent.TxHash,
	)
	return err
}

// SetAgentMetadataField merges one key into the agent metadata document.
func (s *Store) SetAgentMetadataField(ctx context.Context, chainID, agentID int64, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE agents
		SET metadata = COALESCE(metadata, '{}'::jsonb) || jsonb_build_object($3::text, $4::text),
		    updated_at = now()
		WHERE chain_id = $1 AND agent_id = $2
	`, chainID, agentID, key, value)
	return err
}

// ApplyAgentProfile merges a resolved agent URI document into the agent
// row. Absent fields keep their stored values.
func (s *Store) ApplyAgentProfile(ctx context.Context, chainID, agentID int64, profile model.AgentProfile) error {
	metadata, err := profile.MetadataJSON()
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE agents
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    image = COALESCE($5, image),
		    categories = COALESCE($6, categories),
		    x402_support = COALESCE($7, x402_support),
		    metadata = COALESCE(metadata, '{}'::jsonb) || $8::jsonb,
		    updated_at = now()
		WHERE chain_id = $1 AND agent_id = $2
	`,
		chainID,
		agentID,
		profile.Name,
		profile.Description,
		profile.Image,
		profile.Categories,
		profile.X402Support,
		string(metadata),
	)
	return err
}
