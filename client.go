package foundry

import "go.uber.org/zap"

// Client is the main entrypoint. Clients share no state and are safe for
// concurrent use.
type Client struct {
	Config Config
	auth   *Auth
	http   *httpClient
	logger *zap.Logger

	Agents       *AgentsAPI
	Threads      *ThreadsAPI
	Messages     *MessagesAPI
	Runs         *RunsAPI
	Files        *FilesAPI
	VectorStores *VectorStoresAPI
	Inference    *InferenceAPI
}

// NewClient constructs a Client using parameters or environment fallbacks.
func NewClient(endpoint, deployment, apiKey string) (*Client, error) {
	cfg, err := LoadConfig(endpoint, deployment, apiKey)
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(cfg)
}

// NewClientWithParams constructs a Client from structured configuration parameters.
func NewClientWithParams(params ConfigParams) (*Client, error) {
	cfg, err := LoadConfigWithParams(params)
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig builds a Client from a fully parsed Config.
func NewClientWithConfig(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	auth, err := newAuth(cfg)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	httpClient := newHTTPClient(cfg, auth)

	return &Client{
		Config:   cfg,
		auth:     auth,
		http:     httpClient,
		logger:   logger,
		Agents:   newAgentsAPI(cfg, httpClient),
		Threads:  &ThreadsAPI{httpClient: httpClient},
		Messages: &MessagesAPI{httpClient: httpClient},
		Runs: &RunsAPI{
			httpClient: httpClient,
			poll:       cfg.Poll,
			logger:     logger.Named("poller"),
			metrics:    cfg.Metrics,
		},
		Files:        &FilesAPI{httpClient: httpClient},
		VectorStores: &VectorStoresAPI{httpClient: httpClient},
		Inference:    newInferenceAPI(cfg, auth, logger.Named("inference")),
	}, nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// Close releases HTTP resources.
func (c *Client) Close() {
	if c == nil || c.http == nil {
		return
	}
	c.http.close()
}
