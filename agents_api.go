package foundry

import (
	"context"
	"fmt"
)

// AgentsAPI manages agent definitions.
type AgentsAPI struct {
	cfg        Config
	httpClient *httpClient
}

func newAgentsAPI(cfg Config, httpClient *httpClient) *AgentsAPI {
	return &AgentsAPI{cfg: cfg, httpClient: httpClient}
}

// List returns one page of agents.
func (a *AgentsAPI) List(params ListParams) (ListResponse[Agent], error) {
	return a.ListWithContext(context.Background(), params)
}

// ListWithContext returns one page of agents with a caller-supplied context.
func (a *AgentsAPI) ListWithContext(ctx context.Context, params ListParams) (ListResponse[Agent], error) {
	var resp ListResponse[Agent]
	if err := a.httpClient.getJSON(ctx, "/assistants", params.query(), &resp); err != nil {
		return ListResponse[Agent]{}, fmt.Errorf("list agents: %w", err)
	}
	return resp, nil
}

// Retrieve fetches an agent.
func (a *AgentsAPI) Retrieve(agentID string) (Agent, error) {
	return a.RetrieveWithContext(context.Background(), agentID)
}

// RetrieveWithContext fetches an agent with a caller-supplied context.
func (a *AgentsAPI) RetrieveWithContext(ctx context.Context, agentID string) (Agent, error) {
	if agentID == "" {
		return Agent{}, fmt.Errorf("agentID cannot be empty")
	}
	var resp Agent
	if err := a.httpClient.getJSON(ctx, "/assistants/"+pathEscape(agentID), nil, &resp); err != nil {
		return Agent{}, fmt.Errorf("retrieve agent %s: %w", agentID, err)
	}
	return resp, nil
}

// Create creates a new agent. An empty Model uses the configured deployment.
func (a *AgentsAPI) Create(params AgentParams) (Agent, error) {
	return a.CreateWithContext(context.Background(), params)
}

// CreateWithContext creates a new agent with a caller-supplied context.
func (a *AgentsAPI) CreateWithContext(ctx context.Context, params AgentParams) (Agent, error) {
	if params.Model == "" {
		params.Model = a.cfg.Deployment
	}
	if params.Model == "" {
		return Agent{}, ErrMissingDeployment
	}
	var resp Agent
	if err := a.httpClient.postJSON(ctx, "/assistants", params, nil, &resp); err != nil {
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return resp, nil
}

// Update modifies an agent.
func (a *AgentsAPI) Update(agentID string, params AgentParams) (Agent, error) {
	return a.UpdateWithContext(context.Background(), agentID, params)
}

// UpdateWithContext modifies an agent with a caller-supplied context.
func (a *AgentsAPI) UpdateWithContext(ctx context.Context, agentID string, params AgentParams) (Agent, error) {
	if agentID == "" {
		return Agent{}, fmt.Errorf("agentID cannot be empty")
	}
	if params.Model == "" {
		params.Model = a.cfg.Deployment
	}
	var resp Agent
	if err := a.httpClient.postJSON(ctx, "/assistants/"+pathEscape(agentID), params, nil, &resp); err != nil {
		return Agent{}, fmt.Errorf("update agent %s: %w", agentID, err)
	}
	return resp, nil
}

// Delete removes an agent.
func (a *AgentsAPI) Delete(agentID string) error {
	return a.DeleteWithContext(context.Background(), agentID)
}

// DeleteWithContext removes an agent with a caller-supplied context.
func (a *AgentsAPI) DeleteWithContext(ctx context.Context, agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agentID cannot be empty")
	}
	var resp DeletionStatus
	if err := a.httpClient.deleteJSON(ctx, "/assistants/"+pathEscape(agentID), &resp); err != nil {
		return fmt.Errorf("delete agent %s: %w", agentID, err)
	}
	return nil
}
