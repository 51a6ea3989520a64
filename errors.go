package foundry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingEndpoint   = &ConfigError{Field: "endpoint", Hint: "set AZURE_AI_AGENT_ENDPOINT or PROJECT_ENDPOINT"}
	ErrMissingDeployment = &ConfigError{Field: "deployment", Hint: "set AZURE_OPENAI_API_DEPLOYMENT_NAME"}
	ErrMissingCredential = &ConfigError{Field: "credential", Hint: "provide an API key or a token credential"}

	// ErrMessageNotFound means no message of the requested role exists.
	// It is an ordinary outcome, e.g. when a run failed before replying.
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnsupported is returned by backends that lack an operation.
	ErrUnsupported = errors.New("operation not supported by this backend")

	ErrRunFailed       = errors.New("run failed")
	ErrRunNotCompleted = errors.New("run ended without completing")
	ErrPollCancelled   = errors.New("run polling cancelled")
	ErrPollTimedOut    = errors.New("run polling timed out")
)

// ConfigError reports missing or invalid configuration. It is returned
// before any remote call is made.
type ConfigError struct {
	Field string
	Hint  string
	Err   error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid configuration: %s", e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is matches on Field so wrapped copies compare equal to the sentinels.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	return ok && t.Field == e.Field
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

// APIError represents an error returned by the agent service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
	RequestID  string
	Details    map[string]any
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.RequestID != "" {
		return fmt.Sprintf("foundry api error (%d): %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("foundry api error (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) apiError() *APIError { return e }

// AsAPIError finds the *APIError behind err, including one carried by a
// typed wrapper such as *NotFoundError.
func AsAPIError(err error) (*APIError, bool) {
	var carrier interface{ apiError() *APIError }
	if errors.As(err, &carrier) && carrier.apiError() != nil {
		return carrier.apiError(), true
	}
	return nil, false
}

type BadRequestError struct{ *APIError }
type AuthenticationError struct{ *APIError }
type ForbiddenError struct{ *APIError }
type NotFoundError struct{ *APIError }
type ConflictError struct{ *APIError }
type RateLimitError struct {
	*APIError
	RetryAfter *time.Duration
}
type ServerError struct{ *APIError }

// apiErrorFromResponse maps an HTTP status code and optional JSON body to a typed error.
func apiErrorFromResponse(status int, body []byte, headers http.Header, requestIDHeader string) error {
	code, message, details := extractErrorDetail(status, body)
	requestID := ""
	if headers != nil {
		if requestIDHeader != "" {
			requestID = headers.Get(requestIDHeader)
		}
		if requestID == "" {
			requestID = headers.Get("apim-request-id")
		}
	}

	base := &APIError{
		StatusCode: status,
		Code:       code,
		Message:    message,
		Body:       body,
		RequestID:  requestID,
		Details:    details,
	}

	switch status {
	case http.StatusBadRequest:
		return &BadRequestError{APIError: base}
	case http.StatusUnauthorized:
		return &AuthenticationError{APIError: base}
	case http.StatusForbidden:
		return &ForbiddenError{APIError: base}
	case http.StatusNotFound:
		return &NotFoundError{APIError: base}
	case http.StatusConflict:
		return &ConflictError{APIError: base}
	case http.StatusTooManyRequests:
		return &RateLimitError{APIError: base, RetryAfter: parseRetryAfter(headers)}
	default:
		if status >= 500 {
			return &ServerError{APIError: base}
		}
		return base
	}
}

// extractErrorDetail understands both the OpenAI-style envelope
// {"error":{"code":..,"message":..}} and flat {"message":..} bodies.
func extractErrorDetail(status int, body []byte) (string, string, map[string]any) {
	details := map[string]any{}
	if len(body) == 0 {
		return "", fmt.Sprintf("HTTP %d", status), details
	}
	raw := strings.TrimSpace(string(body))

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		details = parsed
		if inner, ok := parsed["error"].(map[string]any); ok {
			code, _ := inner["code"].(string)
			if msg := findDetailString(inner); msg != "" {
				return code, msg, details
			}
		}
		if msg := findDetailString(parsed); msg != "" {
			code, _ := parsed["code"].(string)
			return code, msg, details
		}
	}
	if raw != "" {
		return "", raw, details
	}
	return "", fmt.Sprintf("HTTP %d", status), details
}

func findDetailString(parsed map[string]any) string {
	for _, key := range []string{"message", "detail", "error"} {
		if v, ok := parsed[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func parseRetryAfter(headers http.Header) *time.Duration {
	if headers == nil {
		return nil
	}
	if ms := headers.Get("retry-after-ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil {
			d := time.Duration(v) * time.Millisecond
			return &d
		}
	}
	val := headers.Get("Retry-After")
	if val == "" {
		return nil
	}
	if seconds, err := strconv.Atoi(val); err == nil {
		d := time.Duration(seconds) * time.Second
		return &d
	}
	if t, err := http.ParseTime(val); err == nil {
		d := time.Until(t)
		return &d
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
