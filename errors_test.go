package foundry

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAPIErrorFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		wantType string
	}{
		{http.StatusBadRequest, `{"error": {"code": "invalid_request", "message": "Invalid input"}}`, "*foundry.BadRequestError"},
		{http.StatusUnauthorized, `{"message": "Invalid API key"}`, "*foundry.AuthenticationError"},
		{http.StatusForbidden, `{"detail": "Access denied"}`, "*foundry.ForbiddenError"},
		{http.StatusNotFound, `{"error": {"code": "not_found", "message": "No thread found"}}`, "*foundry.NotFoundError"},
		{http.StatusConflict, `{"error": {"message": "Run is already active"}}`, "*foundry.ConflictError"},
		{http.StatusTooManyRequests, `{"error": {"code": "429", "message": "Rate limit exceeded"}}`, "*foundry.RateLimitError"},
		{http.StatusInternalServerError, `{"error": "Internal error"}`, "*foundry.ServerError"},
		{http.StatusBadGateway, `Bad gateway`, "*foundry.ServerError"},
		{http.StatusTeapot, `{"detail": "I'm a teapot"}`, "*foundry.APIError"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			headers := http.Header{}
			headers.Set("x-ms-client-request-id", "req-7")

			err := apiErrorFromResponse(tt.status, []byte(tt.body), headers, "x-ms-client-request-id")
			if got := fmt.Sprintf("%T", err); got != tt.wantType {
				t.Fatalf("error type = %s, want %s", got, tt.wantType)
			}
			apiErr, ok := AsAPIError(fmt.Errorf("call: %w", err))
			if !ok {
				t.Fatalf("expected an *APIError behind %T", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.RequestID != "req-7" {
				t.Fatalf("unexpected api error %+v", apiErr)
			}
		})
	}
	if _, ok := AsAPIError(errors.New("plain")); ok {
		t.Fatalf("plain error has no api error")
	}
}

func TestAPIErrorFallsBackToAPIMRequestID(t *testing.T) {
	headers := http.Header{}
	headers.Set("apim-request-id", "apim-1")

	err := apiErrorFromResponse(http.StatusBadRequest, nil, headers, "x-ms-client-request-id")
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.RequestID != "apim-1" {
		t.Fatalf("expected apim request id, got %+v", apiErr)
	}
}

func TestRateLimitErrorRetryAfter(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		value        string
		wantNil      bool
		wantApproxMs int64
	}{
		{name: "NumericSeconds", header: "Retry-After", value: "30", wantApproxMs: 30000},
		{name: "Milliseconds", header: "retry-after-ms", value: "1500", wantApproxMs: 1500},
		{name: "Empty", wantNil: true},
		{name: "InvalidValue", header: "Retry-After", value: "not-a-number", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.value != "" {
				headers.Set(tt.header, tt.value)
			}

			err := apiErrorFromResponse(http.StatusTooManyRequests, []byte(`{}`), headers, "")
			rateLimitErr, ok := err.(*RateLimitError)
			if !ok {
				t.Fatalf("expected *RateLimitError, got %T", err)
			}

			if tt.wantNil {
				if rateLimitErr.RetryAfter != nil {
					t.Errorf("RetryAfter = %v, want nil", *rateLimitErr.RetryAfter)
				}
				return
			}
			if rateLimitErr.RetryAfter == nil {
				t.Fatal("RetryAfter = nil, want non-nil")
			}
			if got := rateLimitErr.RetryAfter.Milliseconds(); got != tt.wantApproxMs {
				t.Errorf("RetryAfter = %dms, want %dms", got, tt.wantApproxMs)
			}
		})
	}
}

func TestExtractErrorDetail(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        []byte
		wantCode    string
		wantMessage string
	}{
		{
			name:        "ErrorEnvelope",
			status:      400,
			body:        []byte(`{"error": {"code": "invalid_value", "message": "bad assistant_id"}}`),
			wantCode:    "invalid_value",
			wantMessage: "bad assistant_id",
		},
		{
			name:        "DetailField",
			status:      400,
			body:        []byte(`{"detail": "Invalid input"}`),
			wantMessage: "Invalid input",
		},
		{
			name:        "MessageField",
			status:      401,
			body:        []byte(`{"code": "Unauthorized", "message": "Unauthorized"}`),
			wantCode:    "Unauthorized",
			wantMessage: "Unauthorized",
		},
		{
			name:        "ErrorString",
			status:      500,
			body:        []byte(`{"error": "Server error"}`),
			wantMessage: "Server error",
		},
		{
			name:        "PlainTextBody",
			status:      502,
			body:        []byte(`Bad Gateway`),
			wantMessage: "Bad Gateway",
		},
		{
			name:        "EmptyBody",
			status:      503,
			body:        []byte{},
			wantMessage: "HTTP 503",
		},
		{
			name:        "InvalidJSON",
			status:      400,
			body:        []byte(`{invalid json`),
			wantMessage: "{invalid json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg, _ := extractErrorDetail(tt.status, tt.body)
			if msg != tt.wantMessage {
				t.Errorf("message = %q, want %q", msg, tt.wantMessage)
			}
			if code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestAPIErrorErrorMethod(t *testing.T) {
	tests := []struct {
		name      string
		err       *APIError
		wantEmpty bool
		contains  string
	}{
		{
			name:      "NilError",
			err:       nil,
			wantEmpty: true,
		},
		{
			name:     "WithRequestID",
			err:      &APIError{StatusCode: 400, Message: "Bad request", RequestID: "req-123"},
			contains: "request_id=req-123",
		},
		{
			name:     "WithoutRequestID",
			err:      &APIError{StatusCode: 500, Message: "Server error"},
			contains: "foundry api error (500)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if tt.wantEmpty && result != "" {
				t.Errorf("Error() = %q, want empty", result)
			}
			if tt.contains != "" && !strings.Contains(result, tt.contains) {
				t.Errorf("Error() = %q, want to contain %q", result, tt.contains)
			}
		})
	}
}

func TestConfigErrorMatchesSentinelByField(t *testing.T) {
	err := fmt.Errorf("create client: %w", &ConfigError{Field: "endpoint", Err: errors.New("boom")})
	if !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("expected wrapped endpoint error to match ErrMissingEndpoint")
	}
	if errors.Is(err, ErrMissingDeployment) {
		t.Fatalf("endpoint error must not match ErrMissingDeployment")
	}
	if !strings.Contains(ErrMissingDeployment.Error(), "AZURE_OPENAI_API_DEPLOYMENT_NAME") {
		t.Fatalf("expected hint in message, got %q", ErrMissingDeployment.Error())
	}
}

func TestIsNotFound(t *testing.T) {
	err := fmt.Errorf("retrieve run: %w", apiErrorFromResponse(http.StatusNotFound, nil, nil, ""))
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound to see through wrapping")
	}
	if IsNotFound(errors.New("other")) {
		t.Fatalf("plain error is not a not-found error")
	}
}
