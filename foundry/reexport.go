package foundry

import (
	"context"
	"iter"

	"github.com/prometheus/client_golang/prometheus"

	root "github.com/foundry-agents/foundry-go"
)

type (
	// Client and configuration.
	Client       = root.Client
	Config       = root.Config
	ConfigParams = root.ConfigParams
	ConfigError  = root.ConfigError
	RequestHook  = root.RequestHook
	ResponseHook = root.ResponseHook

	// Backend seam.
	Service       = root.Service
	RunGetter     = root.RunGetter
	RunGetterFunc = root.RunGetterFunc

	// Run polling.
	Poller       = root.Poller
	PollerOption = root.PollerOption
	PollConfig   = root.PollConfig
	PollResult   = root.PollResult
	PollMetrics  = root.PollMetrics
	Outcome      = root.Outcome
	RunRef       = root.RunRef
	BatchResult  = root.BatchResult

	// Threads, runs, and messages.
	Run          = root.Run
	RunStatus    = root.RunStatus
	RunUsage     = root.RunUsage
	RunError     = root.RunError
	Message      = root.Message
	MessageRole  = root.MessageRole
	ContentBlock = root.ContentBlock
	ContentType  = root.ContentType
	Conversation = root.Conversation
	Exchange     = root.Exchange

	// Agents and files.
	Agent       = root.Agent
	AgentParams = root.AgentParams
	Tool        = root.Tool
	FileUpload  = root.FileUpload

	// Errors.
	APIError            = root.APIError
	BadRequestError     = root.BadRequestError
	AuthenticationError = root.AuthenticationError
	ForbiddenError      = root.ForbiddenError
	NotFoundError       = root.NotFoundError
	ConflictError       = root.ConflictError
	RateLimitError      = root.RateLimitError
	ServerError         = root.ServerError
)

const (
	RunQueued         = root.RunQueued
	RunInProgress     = root.RunInProgress
	RunRequiresAction = root.RunRequiresAction
	RunCancelling     = root.RunCancelling
	RunCancelled      = root.RunCancelled
	RunFailed         = root.RunFailed
	RunCompleted      = root.RunCompleted
	RunIncomplete     = root.RunIncomplete
	RunExpired        = root.RunExpired

	OutcomeCompleted = root.OutcomeCompleted
	OutcomeFailed    = root.OutcomeFailed
	OutcomeCancelled = root.OutcomeCancelled
	OutcomeTimedOut  = root.OutcomeTimedOut
	OutcomeTerminal  = root.OutcomeTerminal

	RoleUnknown   = root.RoleUnknown
	RoleSystem    = root.RoleSystem
	RoleUser      = root.RoleUser
	RoleAssistant = root.RoleAssistant

	ContentOther = root.ContentOther
	ContentText  = root.ContentText

	DefaultPollInterval = root.DefaultPollInterval
)

var (
	ErrMissingEndpoint   = root.ErrMissingEndpoint
	ErrMissingDeployment = root.ErrMissingDeployment
	ErrMissingCredential = root.ErrMissingCredential
	ErrMessageNotFound   = root.ErrMessageNotFound
	ErrUnsupported       = root.ErrUnsupported
	ErrRunFailed         = root.ErrRunFailed
	ErrRunNotCompleted   = root.ErrRunNotCompleted
	ErrPollCancelled     = root.ErrPollCancelled
	ErrPollTimedOut      = root.ErrPollTimedOut
)

func NewClient(endpoint, deployment, apiKey string) (*Client, error) {
	return root.NewClient(endpoint, deployment, apiKey)
}

func NewClientWithParams(params ConfigParams) (*Client, error) {
	return root.NewClientWithParams(params)
}

func NewClientWithConfig(cfg Config) (*Client, error) {
	return root.NewClientWithConfig(cfg)
}

func LoadConfigWithParams(params ConfigParams) (Config, error) {
	return root.LoadConfigWithParams(params)
}

func NewPoller(getter RunGetter, cfg PollConfig, opts ...PollerOption) *Poller {
	return root.NewPoller(getter, cfg, opts...)
}

func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	return root.NewPollMetrics(reg)
}

func WaitForRun(ctx context.Context, getter RunGetter, threadID, runID string, cfg PollConfig) (PollResult, error) {
	return root.WaitForRun(ctx, getter, threadID, runID, cfg)
}

func FindByRole(seq iter.Seq2[Message, error], role MessageRole) (Message, error) {
	return root.FindByRole(seq, role)
}

func FromRun(seq iter.Seq2[Message, error], runID string) iter.Seq2[Message, error] {
	return root.FromRun(seq, runID)
}

func TextBlocks(msg Message) []string {
	return root.TextBlocks(msg)
}

func RenderText(msg Message) string {
	return root.RenderText(msg)
}
