package foundry

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestHook allows callers to inspect or mutate requests before they are sent.
type RequestHook func(*http.Request)

// ResponseHook allows callers to inspect responses (raw bytes included).
type ResponseHook func(*http.Response, []byte)

// Config holds SDK configuration.
type Config struct {
	// Endpoint is the project endpoint serving the agents API, e.g.
	// https://<resource>.services.ai.azure.com/api/projects/<project>.
	Endpoint string
	// OpenAIEndpoint serves chat completions. Defaults to Endpoint.
	OpenAIEndpoint   string
	Deployment       string
	AgentsAPIVersion string
	OpenAIAPIVersion string

	APIKey     string
	Credential azcore.TokenCredential
	TokenScope string

	Timeout    time.Duration
	MaxRetries int

	Debug bool

	ExtraHeaders http.Header
	ProxyURL     *url.URL

	RequestIDHeader  string
	DefaultRequestID string
	AutoRequestID    bool

	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
	RetryJitter          float64

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	Poll PollConfig
	// Metrics, when set, records poller activity.
	Metrics *PollMetrics

	Logger        *zap.Logger
	RedactHeaders []string

	BeforeRequest []RequestHook
	AfterResponse []ResponseHook
}

// ConfigParams provides optional overrides for building a Config.
type ConfigParams struct {
	// File is an optional YAML file; FOUNDRY_CONFIG_FILE is used when empty.
	File string

	Endpoint         string
	OpenAIEndpoint   string
	Deployment       string
	AgentsAPIVersion string
	OpenAIAPIVersion string

	APIKey     string
	Credential azcore.TokenCredential
	TokenScope string

	Timeout         time.Duration
	TimeoutSeconds  float64
	MaxRetries      int
	Debug           *bool
	ExtraHeaders    http.Header
	ProxyURL        string
	RequestID       string
	AutoRequestID   *bool
	RequestIDHeader string

	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
	RetryJitter          float64

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	PollInterval    time.Duration
	PollMaxWait     time.Duration
	PollMaxAttempts int
	Metrics         *PollMetrics

	Logger        *zap.Logger
	RedactHeaders []string

	BeforeRequest []RequestHook
	AfterResponse []ResponseHook
}

// fileConfig is the YAML layout accepted by LoadConfigWithParams.
type fileConfig struct {
	Endpoint         string            `yaml:"endpoint"`
	OpenAIEndpoint   string            `yaml:"openai_endpoint"`
	Deployment       string            `yaml:"deployment"`
	AgentsAPIVersion string            `yaml:"agents_api_version"`
	OpenAIAPIVersion string            `yaml:"openai_api_version"`
	TokenScope       string            `yaml:"token_scope"`
	Timeout          time.Duration     `yaml:"timeout"`
	MaxRetries       *int              `yaml:"max_retries"`
	Debug            *bool             `yaml:"debug"`
	Proxy            string            `yaml:"proxy"`
	Headers          map[string]string `yaml:"headers"`
	Poll             struct {
		Interval    time.Duration `yaml:"interval"`
		MaxWait     time.Duration `yaml:"max_wait"`
		MaxAttempts int           `yaml:"max_attempts"`
	} `yaml:"poll"`
}

const (
	defaultAgentsAPIVersion = "v1"
	defaultOpenAIAPIVersion = "2024-12-01-preview"
	defaultTokenScope       = "https://ai.azure.com/.default"
	defaultTimeout          = 60 * time.Second
	defaultMaxRetries       = 3
	defaultRetryInitial     = 200 * time.Millisecond
	defaultRetryMax         = 2 * time.Second
	defaultRetryMultiplier  = 2.0
	defaultRetryJitter      = 0.2
	defaultMaxIdleConns     = 100
	defaultMaxIdlePerHost   = 10
	defaultIdleConnTimeout  = 90 * time.Second
	defaultRequestIDHeader  = "x-ms-client-request-id"
)

// LoadConfig builds a Config from parameters or environment variables.
// Environment fallbacks:
//
//	AZURE_AI_AGENT_ENDPOINT, PROJECT_ENDPOINT, AZURE_OPENAI_ENDPOINT,
//	AZURE_OPENAI_API_DEPLOYMENT_NAME, AZURE_OPENAI_MODEL, AZURE_OPENAI_API_VERSION,
//	AZURE_OPENAI_API_KEY, FOUNDRY_AGENTS_API_VERSION, FOUNDRY_TOKEN_SCOPE,
//	FOUNDRY_TIMEOUT, FOUNDRY_MAX_RETRIES, FOUNDRY_DEBUG, FOUNDRY_PROXY,
//	FOUNDRY_EXTRA_HEADERS, FOUNDRY_REQUEST_ID, FOUNDRY_AUTO_REQUEST_ID,
//	FOUNDRY_REQUEST_ID_HEADER, FOUNDRY_RETRY_INITIAL_MS, FOUNDRY_RETRY_MAX_MS,
//	FOUNDRY_RETRY_MULTIPLIER, FOUNDRY_RETRY_JITTER, FOUNDRY_MAX_IDLE_CONNS,
//	FOUNDRY_MAX_IDLE_CONNS_PER_HOST, FOUNDRY_IDLE_CONN_TIMEOUT,
//	FOUNDRY_POLL_INTERVAL, FOUNDRY_POLL_TIMEOUT, FOUNDRY_POLL_MAX_ATTEMPTS,
//	FOUNDRY_CONFIG_FILE.
func LoadConfig(endpoint, deployment, apiKey string) (Config, error) {
	return LoadConfigWithParams(ConfigParams{
		Endpoint:   endpoint,
		Deployment: deployment,
		APIKey:     apiKey,
	})
}

// LoadConfigWithParams is an extended constructor that accepts structured options.
// Precedence is params, then environment, then the YAML file, then defaults.
func LoadConfigWithParams(params ConfigParams) (Config, error) {
	var file fileConfig
	if path := firstNonEmpty(params.File, os.Getenv("FOUNDRY_CONFIG_FILE")); path != "" {
		loaded, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	envIdleTimeout, err := parseEnvDuration("FOUNDRY_IDLE_CONN_TIMEOUT", time.Second)
	if err != nil {
		return Config{}, err
	}

	maxRetries, err := layeredInt(params.MaxRetries, "FOUNDRY_MAX_RETRIES", file.MaxRetries, defaultMaxRetries)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := layeredInt(params.MaxIdleConns, "FOUNDRY_MAX_IDLE_CONNS", nil, defaultMaxIdleConns)
	if err != nil {
		return Config{}, err
	}
	maxIdlePerHost, err := layeredInt(params.MaxIdleConnsPerHost, "FOUNDRY_MAX_IDLE_CONNS_PER_HOST", nil, defaultMaxIdlePerHost)
	if err != nil {
		return Config{}, err
	}

	envPollInterval, err := parseEnvDuration("FOUNDRY_POLL_INTERVAL", time.Second)
	if err != nil {
		return Config{}, err
	}
	envPollTimeout, err := parseEnvDuration("FOUNDRY_POLL_TIMEOUT", time.Second)
	if err != nil {
		return Config{}, err
	}

	endpoint := firstNonEmpty(params.Endpoint, os.Getenv("AZURE_AI_AGENT_ENDPOINT"), os.Getenv("PROJECT_ENDPOINT"), os.Getenv("AZURE_OPENAI_ENDPOINT"), file.Endpoint)

	cfg := Config{
		Endpoint:             strings.TrimSuffix(endpoint, "/"),
		OpenAIEndpoint:       strings.TrimSuffix(firstNonEmpty(params.OpenAIEndpoint, os.Getenv("AZURE_OPENAI_ENDPOINT"), file.OpenAIEndpoint, endpoint), "/"),
		Deployment:           firstNonEmpty(params.Deployment, os.Getenv("AZURE_OPENAI_API_DEPLOYMENT_NAME"), os.Getenv("AZURE_OPENAI_MODEL"), file.Deployment),
		AgentsAPIVersion:     firstNonEmpty(params.AgentsAPIVersion, os.Getenv("FOUNDRY_AGENTS_API_VERSION"), file.AgentsAPIVersion, defaultAgentsAPIVersion),
		OpenAIAPIVersion:     firstNonEmpty(params.OpenAIAPIVersion, os.Getenv("AZURE_OPENAI_API_VERSION"), file.OpenAIAPIVersion, defaultOpenAIAPIVersion),
		APIKey:               firstNonEmpty(params.APIKey, os.Getenv("AZURE_OPENAI_API_KEY")),
		Credential:           params.Credential,
		TokenScope:           firstNonEmpty(params.TokenScope, os.Getenv("FOUNDRY_TOKEN_SCOPE"), file.TokenScope, defaultTokenScope),
		MaxRetries:           maxRetries,
		ExtraHeaders:         cloneHeaders(params.ExtraHeaders),
		RequestIDHeader:      firstNonEmpty(params.RequestIDHeader, os.Getenv("FOUNDRY_REQUEST_ID_HEADER"), defaultRequestIDHeader),
		DefaultRequestID:     firstNonEmpty(params.RequestID, os.Getenv("FOUNDRY_REQUEST_ID")),
		RetryInitialInterval: defaultRetryInitial,
		RetryMaxInterval:     defaultRetryMax,
		RetryMultiplier:      defaultRetryMultiplier,
		RetryJitter:          defaultRetryJitter,
		MaxIdleConns:         maxIdleConns,
		MaxIdleConnsPerHost:  maxIdlePerHost,
		IdleConnTimeout:      firstNonZeroDuration(params.IdleConnTimeout, envIdleTimeout, defaultIdleConnTimeout),
		Poll: PollConfig{
			Interval:    firstNonZeroDuration(params.PollInterval, envPollInterval, file.Poll.Interval),
			MaxWait:     firstNonZeroDuration(params.PollMaxWait, envPollTimeout, file.Poll.MaxWait),
			MaxAttempts: file.Poll.MaxAttempts,
		},
		Metrics:       params.Metrics,
		Logger:        params.Logger,
		RedactHeaders: params.RedactHeaders,
		BeforeRequest: params.BeforeRequest,
		AfterResponse: params.AfterResponse,
		AutoRequestID: true,
	}

	if cfg.ExtraHeaders == nil {
		cfg.ExtraHeaders = http.Header{}
	}
	for k, v := range file.Headers {
		if cfg.ExtraHeaders.Get(k) == "" {
			cfg.ExtraHeaders.Set(k, v)
		}
	}
	if cfg.RedactHeaders == nil {
		cfg.RedactHeaders = []string{"Authorization", "api-key"}
	}

	if params.Debug != nil {
		cfg.Debug = *params.Debug
	} else if env := os.Getenv("FOUNDRY_DEBUG"); env != "" {
		val, err := strconv.ParseBool(env)
		if err != nil {
			return Config{}, configErrorf("FOUNDRY_DEBUG", "parse: %w", err)
		}
		cfg.Debug = val
	} else if file.Debug != nil {
		cfg.Debug = *file.Debug
	}

	if params.Timeout > 0 {
		cfg.Timeout = params.Timeout
	} else if params.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(params.TimeoutSeconds * float64(time.Second))
	} else if envTimeout, err := parseEnvDuration("FOUNDRY_TIMEOUT", time.Second); err != nil {
		return Config{}, err
	} else if envTimeout > 0 {
		cfg.Timeout = envTimeout
	} else if file.Timeout > 0 {
		cfg.Timeout = file.Timeout
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Timeout < 0 {
		return Config{}, configErrorf("timeout", "must be non-negative")
	}

	if env := os.Getenv("FOUNDRY_EXTRA_HEADERS"); env != "" {
		envHeaders, err := parseHeadersEnv(env)
		if err != nil {
			return Config{}, err
		}
		for k, vals := range envHeaders {
			for _, v := range vals {
				cfg.ExtraHeaders.Add(k, v)
			}
		}
	}

	proxyURL := firstNonEmpty(params.ProxyURL, os.Getenv("FOUNDRY_PROXY"), file.Proxy)
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return Config{}, configErrorf("FOUNDRY_PROXY", "parse: %w", err)
		}
		cfg.ProxyURL = parsed
	}

	if params.AutoRequestID != nil {
		cfg.AutoRequestID = *params.AutoRequestID
	} else if env := os.Getenv("FOUNDRY_AUTO_REQUEST_ID"); env != "" {
		val, err := strconv.ParseBool(env)
		if err != nil {
			return Config{}, configErrorf("FOUNDRY_AUTO_REQUEST_ID", "parse: %w", err)
		}
		cfg.AutoRequestID = val
	}

	if params.RetryInitialInterval > 0 {
		cfg.RetryInitialInterval = params.RetryInitialInterval
	} else if val, err := parseEnvDuration("FOUNDRY_RETRY_INITIAL_MS", time.Millisecond); err != nil {
		return Config{}, err
	} else if val > 0 {
		cfg.RetryInitialInterval = val
	}
	if params.RetryMaxInterval > 0 {
		cfg.RetryMaxInterval = params.RetryMaxInterval
	} else if val, err := parseEnvDuration("FOUNDRY_RETRY_MAX_MS", time.Millisecond); err != nil {
		return Config{}, err
	} else if val > 0 {
		cfg.RetryMaxInterval = val
	}
	if params.RetryMultiplier != 0 {
		cfg.RetryMultiplier = params.RetryMultiplier
	} else if valStr := os.Getenv("FOUNDRY_RETRY_MULTIPLIER"); valStr != "" {
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return Config{}, configErrorf("FOUNDRY_RETRY_MULTIPLIER", "parse: %w", err)
		}
		cfg.RetryMultiplier = val
	}
	if params.RetryJitter != 0 {
		cfg.RetryJitter = params.RetryJitter
	} else if valStr := os.Getenv("FOUNDRY_RETRY_JITTER"); valStr != "" {
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return Config{}, configErrorf("FOUNDRY_RETRY_JITTER", "parse: %w", err)
		}
		cfg.RetryJitter = val
	}

	if params.PollMaxAttempts != 0 {
		cfg.Poll.MaxAttempts = params.PollMaxAttempts
	} else if val, set, err := parseEnvInt("FOUNDRY_POLL_MAX_ATTEMPTS"); err != nil {
		return Config{}, err
	} else if set {
		cfg.Poll.MaxAttempts = val
	}
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = DefaultPollInterval
	}

	if cfg.Endpoint == "" {
		return Config{}, ErrMissingEndpoint
	}
	if !isHTTPURL(cfg.Endpoint) {
		return Config{}, &ConfigError{Field: "endpoint", Err: fmt.Errorf("%q is not an http(s) URL", cfg.Endpoint)}
	}
	if cfg.Deployment == "" {
		return Config{}, ErrMissingDeployment
	}
	if cfg.MaxRetries < 0 {
		return Config{}, configErrorf("max_retries", "must be >= 0")
	}
	if cfg.MaxIdleConns < 0 {
		return Config{}, configErrorf("max_idle_conns", "must be >= 0")
	}
	if cfg.MaxIdleConnsPerHost < 0 {
		return Config{}, configErrorf("max_idle_conns_per_host", "must be >= 0")
	}
	if cfg.IdleConnTimeout < 0 {
		return Config{}, configErrorf("idle_conn_timeout", "must be non-negative")
	}
	if cfg.RetryInitialInterval <= 0 || cfg.RetryMaxInterval <= 0 {
		return Config{}, configErrorf("retry", "intervals must be positive")
	}
	if cfg.RetryMultiplier < 1 {
		return Config{}, configErrorf("retry", "multiplier must be >= 1")
	}
	if cfg.RetryJitter < 0 || cfg.RetryJitter > 1 {
		return Config{}, configErrorf("retry", "jitter must be between 0 and 1")
	}
	if err := cfg.Poll.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func readConfigFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, configErrorf("file", "read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, configErrorf("file", "parse %s: %w", path, err)
	}
	return fc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZeroDuration(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

// layeredInt resolves an integer setting. A non-zero param wins over a
// set env var, which wins over the file value and then def.
func layeredInt(param int, env string, file *int, def int) (int, error) {
	if param != 0 {
		return param, nil
	}
	val, set, err := parseEnvInt(env)
	switch {
	case err != nil:
		return 0, err
	case set:
		return val, nil
	case file != nil:
		return *file, nil
	}
	return def, nil
}

func parseEnvInt(env string) (int, bool, error) {
	val, ok := os.LookupEnv(env)
	if !ok || val == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, true, configErrorf(env, "parse: %w", err)
	}
	return parsed, true, nil
}

func parseEnvDuration(env string, numericUnit time.Duration) (time.Duration, error) {
	val := os.Getenv(env)
	if val == "" {
		return 0, nil
	}
	if duration, err := time.ParseDuration(val); err == nil {
		return duration, nil
	}
	seconds, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, configErrorf(env, "parse: %w", err)
	}
	return time.Duration(seconds * float64(numericUnit)), nil
}

func parseHeadersEnv(val string) (http.Header, error) {
	headers := http.Header{}
	if val == "" {
		return headers, nil
	}
	for _, entry := range strings.FieldsFunc(val, func(r rune) bool { return r == ';' || r == ',' || r == '\n' }) {
		if entry == "" {
			continue
		}
		sep := ":"
		if strings.Contains(entry, "=") {
			sep = "="
		}
		parts := strings.SplitN(entry, sep, 2)
		if len(parts) != 2 {
			return nil, configErrorf("FOUNDRY_EXTRA_HEADERS", "invalid header entry %q", entry)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			return nil, configErrorf("FOUNDRY_EXTRA_HEADERS", "invalid header entry %q", entry)
		}
		headers.Add(key, value)
	}
	return headers, nil
}

func cloneHeaders(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}
