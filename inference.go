package foundry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// inferenceTokenScope is the Entra ID scope for Azure OpenAI data-plane calls.
const inferenceTokenScope = "https://cognitiveservices.azure.com/.default"

// InferenceAPI runs chat completions against the configured Azure OpenAI
// deployment.
type InferenceAPI struct {
	client     *openai.Client
	deployment string
	logger     *zap.Logger
}

func newInferenceAPI(cfg Config, auth *Auth, logger *zap.Logger) *InferenceAPI {
	baseURL := openAIBaseURL(firstNonEmpty(cfg.OpenAIEndpoint, cfg.Endpoint))
	// Inference tokens use their own scope and cache.
	auth = &Auth{apiKey: auth.apiKey, credential: auth.credential, scope: inferenceTokenScope, now: time.Now}

	var config openai.ClientConfig
	if auth.apiKey != "" {
		config = openai.DefaultAzureConfig(auth.apiKey, baseURL)
	} else {
		config = openai.DefaultAzureConfig("", baseURL)
		config.APIType = openai.APITypeAzureAD
	}
	config.APIVersion = firstNonEmpty(cfg.OpenAIAPIVersion, defaultOpenAIAPIVersion)
	deployment := cfg.Deployment
	config.AzureModelMapperFunc = func(string) string { return deployment }
	config.HTTPClient = &http.Client{
		Timeout:   firstNonZeroDuration(cfg.Timeout, defaultTimeout),
		Transport: &bearerTransport{auth: auth, base: http.DefaultTransport},
	}

	return &InferenceAPI{
		client:     openai.NewClientWithConfig(config),
		deployment: deployment,
		logger:     logger,
	}
}

// openAIBaseURL strips a project path so only the resource root remains.
func openAIBaseURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(endpoint, "/")
	}
	if strings.HasPrefix(u.Path, "/api/projects") {
		u.Path = ""
	}
	u.RawQuery = ""
	return strings.TrimSuffix(u.String(), "/")
}

// bearerTransport refreshes the Authorization header from Auth on every
// request. With an API key it passes requests through unchanged.
type bearerTransport struct {
	auth *Auth
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.auth.apiKey != "" {
		return t.base.RoundTrip(req)
	}
	token, err := t.auth.Token(req.Context())
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

// Client returns the underlying go-openai client.
func (i *InferenceAPI) Client() *openai.Client {
	return i.client
}

// ChatCompletion sends messages to the deployment.
func (i *InferenceAPI) ChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (openai.ChatCompletionResponse, error) {
	if len(messages) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("at least one message is required")
	}
	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    i.deployment,
		Messages: messages,
	})
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("chat completion on %s: %w", i.deployment, err)
	}
	i.logger.Debug("chat completion",
		zap.String("deployment", i.deployment),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return resp, nil
}

// Ask sends one user prompt, optionally preceded by a system prompt, and
// returns the first choice's text.
func (i *InferenceAPI) Ask(ctx context.Context, system, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	resp, err := i.ChatCompletion(ctx, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
