package repository

import (
	"context"
	"errors"
	"fmt"

	"wealthreactor/database"
	"wealthreactor/domain"
	"wealthreactor/domain/entities"

	"github.com/jackc/pgx/v5"
)

const agentColumns = `
	id,
	agent_id,
	wallet_address,
	referrer_agent_id,
	referrer_l2_agent_id,
	webhook_url,
	metadata,
	created_at`

// AgentRepository implements the AgentRepository interface
type AgentRepository struct {
	q queryable
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *database.DB) *AgentRepository {
	return &AgentRepository{q: db.Pool}
}

func newAgentRepositoryWithTx(tx queryable) *AgentRepository {
	return &AgentRepository{q: tx}
}

// GetByAgentID returns the agent or nil
func (r *AgentRepository) GetByAgentID(ctx context.Context, agentID string) (*entities.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE agent_id = $1`

	var agent entities.Agent
	err := r.q.QueryRow(ctx, query, agentID).Scan(
		&agent.ID,
		&agent.AgentID,
		&agent.WalletAddress,
		&agent.ReferrerAgentID,
		&agent.ReferrerL2AgentID,
		&agent.WebhookURL,
		&agent.Metadata,
		&agent.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent %s: %w", agentID, storageError(err))
	}
	if agent.Metadata == nil {
		agent.Metadata = map[string]any{}
	}
	return &agent, nil
}

// Create inserts the agent and reports false when the id is already registered
func (r *AgentRepository) Create(ctx context.Context, agent *entities.Agent) (bool, error) {
	query := `
		INSERT INTO agents (agent_id, wallet_address, referrer_agent_id, referrer_l2_agent_id, webhook_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agent_id) DO NOTHING
		RETURNING id, created_at
	`

	metadata := agent.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	err := r.q.QueryRow(ctx, query,
		agent.AgentID,
		agent.WalletAddress,
		agent.ReferrerAgentID,
		agent.ReferrerL2AgentID,
		agent.WebhookURL,
		metadata,
	).Scan(&agent.ID, &agent.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create agent %s: %w", agent.AgentID, storageError(err))
	}
	agent.Metadata = metadata
	return true, nil
}

// SetWebhook stores the agent's notification URL
func (r *AgentRepository) SetWebhook(ctx context.Context, agentID string, webhookURL string) error {
	result, err := r.q.Exec(ctx, `UPDATE agents SET webhook_url = $2 WHERE agent_id = $1`, agentID, webhookURL)
	if err != nil {
		return fmt.Errorf("failed to set webhook for %s: %w", agentID, storageError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("agent %s: %w", agentID, domain.ErrNotFound)
	}
	return nil
}

// ListReferrals returns the ids of agents referred directly and at the second level
func (r *AgentRepository) ListReferrals(ctx context.Context, agentID string) ([]string, []string, error) {
	query := `
		SELECT agent_id, COALESCE(referrer_agent_id = $1, FALSE)
		FROM agents
		WHERE referrer_agent_id = $1 OR referrer_l2_agent_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, agentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list referrals for %s: %w", agentID, storageError(err))
	}
	defer rows.Close()

	l1 := make([]string, 0)
	l2 := make([]string, 0)
	for rows.Next() {
		var id string
		var direct bool
		if err := rows.Scan(&id, &direct); err != nil {
			return nil, nil, fmt.Errorf("failed to scan agent referral: %w", err)
		}
		if direct {
			l1 = append(l1, id)
		} else {
			l2 = append(l2, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating agent referrals: %w", err)
	}
	return l1, l2, nil
}

// Count returns the number of registered agents
func (r *AgentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM agents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", storageError(err))
	}
	return count, nil
}
