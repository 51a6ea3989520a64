package foundry

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	mrand "math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type httpClient struct {
	client    *http.Client
	cfg       Config
	auth      *Auth
	logger    *zap.Logger
	redactMap map[string]struct{}
}

// withTransportDefaults fills the zero transport settings of cfg.
func withTransportDefaults(cfg Config) Config {
	cfg.Timeout = cmp.Or(cfg.Timeout, defaultTimeout)
	cfg.RetryInitialInterval = cmp.Or(cfg.RetryInitialInterval, defaultRetryInitial)
	cfg.RetryMaxInterval = cmp.Or(cfg.RetryMaxInterval, defaultRetryMax)
	cfg.RetryMultiplier = cmp.Or(cfg.RetryMultiplier, defaultRetryMultiplier)
	cfg.RequestIDHeader = cmp.Or(cfg.RequestIDHeader, defaultRequestIDHeader)
	cfg.MaxIdleConns = cmp.Or(cfg.MaxIdleConns, defaultMaxIdleConns)
	cfg.MaxIdleConnsPerHost = cmp.Or(cfg.MaxIdleConnsPerHost, defaultMaxIdlePerHost)
	cfg.IdleConnTimeout = cmp.Or(cfg.IdleConnTimeout, defaultIdleConnTimeout)
	cfg.AgentsAPIVersion = cmp.Or(cfg.AgentsAPIVersion, defaultAgentsAPIVersion)
	return cfg
}

func newHTTPClient(cfg Config, auth *Auth) *httpClient {
	cfg = withTransportDefaults(cfg)

	proxy := http.ProxyFromEnvironment
	if cfg.ProxyURL != nil {
		proxy = http.ProxyURL(cfg.ProxyURL)
	}
	redact := make(map[string]struct{}, len(cfg.RedactHeaders))
	for _, h := range cfg.RedactHeaders {
		redact[strings.ToLower(h)] = struct{}{}
	}

	return &httpClient{
		cfg:  cfg,
		auth: auth,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               proxy,
				MaxIdleConns:        cfg.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.IdleConnTimeout,
			},
		},
		logger:    newLogger(cfg).Named("http"),
		redactMap: redact,
	}
}

func newLogger(cfg Config) *zap.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	if cfg.Debug {
		if l, err := zap.NewDevelopment(); err == nil {
			return l
		}
	}
	return zap.NewNop()
}

func (c *httpClient) close() {
	if t, ok := c.client.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}

func (c *httpClient) buildURL(path string, query map[string]string) (string, error) {
	base := strings.TrimSuffix(c.cfg.Endpoint, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("api-version", c.cfg.AgentsAPIVersion)
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// send performs one request with retries and returns the successful
// response with its body unread. Callers own resp.Body.
func (c *httpClient) send(ctx context.Context, method, path string, headers http.Header, body io.Reader, query map[string]string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	fullURL, err := c.buildURL(path, query)
	if err != nil {
		return nil, err
	}
	payload, err := bufferBody(body)
	if err != nil {
		return nil, err
	}

	var lastErr error
	maxAttempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := c.newRequest(ctx, method, fullURL, headers, payload)
		if err != nil {
			return nil, err
		}
		c.logRequest(req, attempt)

		start := time.Now()
		resp, err := c.client.Do(req)
		elapsed := time.Since(start)

		var delay time.Duration
		switch {
		case err != nil:
			if !c.shouldRetry(nil, err, attempt) {
				return nil, err
			}
			lastErr = err
			delay = c.backoffDuration(attempt)
			c.logger.Debug("retrying after error",
				zap.Int("attempt", attempt+1), zap.Int("max_attempts", maxAttempts), zap.Error(err))

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.logResponse(req, resp, nil, elapsed)
			return resp, nil

		default:
			respBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return nil, fmt.Errorf("read response: %w", readErr)
			}
			c.logResponse(req, resp, respBody, elapsed)
			c.runResponseHooks(resp, respBody)

			lastErr = apiErrorFromResponse(resp.StatusCode, respBody, resp.Header, c.cfg.RequestIDHeader)
			if !c.shouldRetry(resp, nil, attempt) {
				return nil, lastErr
			}
			delay = c.retryDelay(resp, attempt)
			c.logger.Debug("retrying after status",
				zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1), zap.Int("max_attempts", maxAttempts))
		}

		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// bufferBody reads body once so every attempt can replay it.
func bufferBody(body io.Reader) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case *bytes.Buffer:
		return b.Bytes(), nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return data, nil
}

func (c *httpClient) newRequest(ctx context.Context, method, fullURL string, headers http.Header, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if err := c.applyHeaders(ctx, req, headers); err != nil {
		return nil, err
	}
	c.attachRequestID(req)
	c.runRequestHooks(req)
	return req, nil
}

func (c *httpClient) doRequest(ctx context.Context, method, path string, headers http.Header, body io.Reader, query map[string]string) ([]byte, error) {
	resp, err := c.send(ctx, method, path, headers, body, query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.runResponseHooks(resp, respBody)
	return respBody, nil
}

func (c *httpClient) logRequest(req *http.Request, attempt int) {
	if ce := c.logger.Check(zap.DebugLevel, "request"); ce != nil {
		ce.Write(
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("attempt", attempt+1),
			zap.Any("headers", c.redactedHeaders(req.Header)),
		)
	}
}

func (c *httpClient) logResponse(req *http.Request, resp *http.Response, body []byte, duration time.Duration) {
	ce := c.logger.Check(zap.DebugLevel, "response")
	if ce == nil {
		return
	}
	bodyPreview := string(body)
	if len(bodyPreview) > 512 {
		bodyPreview = bodyPreview[:512] + "…"
	}
	ce.Write(
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
		zap.String("request_id", resp.Header.Get(c.cfg.RequestIDHeader)),
		zap.String("body", bodyPreview),
	)
}

func (c *httpClient) redactedHeaders(h http.Header) http.Header {
	if len(c.redactMap) == 0 {
		return h
	}
	cloned := cloneHeaders(h)
	for k := range cloned {
		if _, ok := c.redactMap[strings.ToLower(k)]; ok {
			cloned.Set(k, "[redacted]")
		}
	}
	return cloned
}

// applyHeaders layers auth, configured extra headers and per-call
// headers, in that order.
func (c *httpClient) applyHeaders(ctx context.Context, req *http.Request, headers http.Header) error {
	authHeaders, err := c.auth.Headers(ctx)
	if err != nil {
		return err
	}
	for _, src := range []http.Header{authHeaders, c.cfg.ExtraHeaders, headers} {
		for k, vals := range src {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
	}
	return nil
}

func (c *httpClient) attachRequestID(req *http.Request) {
	if c.cfg.RequestIDHeader == "" {
		return
	}
	if req.Header.Get(c.cfg.RequestIDHeader) != "" {
		return
	}
	switch {
	case c.cfg.DefaultRequestID != "":
		req.Header.Set(c.cfg.RequestIDHeader, c.cfg.DefaultRequestID)
	case c.cfg.AutoRequestID:
		req.Header.Set(c.cfg.RequestIDHeader, uuid.NewString())
	}
}

func (c *httpClient) runRequestHooks(req *http.Request) {
	for i, hook := range c.cfg.BeforeRequest {
		c.guardHook("request", i, func() { hook(req) })
	}
}

func (c *httpClient) runResponseHooks(resp *http.Response, body []byte) {
	for i, hook := range c.cfg.AfterResponse {
		c.guardHook("response", i, func() { hook(resp, body) })
	}
}

// guardHook runs a user hook and logs instead of propagating a panic.
func (c *httpClient) guardHook(kind string, i int, call func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn(kind+" hook panic", zap.Int("hook", i), zap.Any("panic", r))
		}
	}()
	call()
}

// shouldRetry reports whether attempt may be followed by another one.
// Transport errors other than context ends and 408, 429 and 5xx
// responses are retried.
func (c *httpClient) shouldRetry(resp *http.Response, err error, attempt int) bool {
	switch {
	case attempt >= c.cfg.MaxRetries:
		return false
	case err != nil:
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	case resp == nil:
		return false
	}
	return resp.StatusCode >= 500 ||
		resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests
}

func (c *httpClient) backoffDuration(attempt int) time.Duration {
	factor := math.Pow(c.cfg.RetryMultiplier, float64(attempt))
	delay := time.Duration(float64(c.cfg.RetryInitialInterval) * factor)
	if delay > c.cfg.RetryMaxInterval {
		delay = c.cfg.RetryMaxInterval
	}
	if c.cfg.RetryJitter > 0 {
		jitterFactor := 1 + (mrand.Float64()*2-1)*c.cfg.RetryJitter
		delay = time.Duration(float64(delay) * jitterFactor)
	}
	if delay < time.Millisecond {
		return time.Millisecond
	}
	return delay
}

// retryDelay is the backoff for attempt, stretched to the server's
// Retry-After hint when that is longer.
func (c *httpClient) retryDelay(resp *http.Response, attempt int) time.Duration {
	delay := c.backoffDuration(attempt)
	if resp == nil {
		return delay
	}
	if hint := parseRetryAfter(resp.Header); hint != nil && *hint > delay {
		return *hint
	}
	return delay
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *httpClient) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	data, err := c.doRequest(ctx, http.MethodGet, path, http.Header{}, nil, query)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

func (c *httpClient) deleteJSON(ctx context.Context, path string, out any) error {
	data, err := c.doRequest(ctx, http.MethodDelete, path, http.Header{}, nil, nil)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

func (c *httpClient) postJSON(ctx context.Context, path string, payload any, query map[string]string, out any) error {
	buf, err := encodeJSON(payload)
	if err != nil {
		return err
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	data, err := c.doRequest(ctx, http.MethodPost, path, headers, buf, query)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

// postStream posts JSON and asks for an event stream. The returned body
// is not buffered.
func (c *httpClient) postStream(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	buf, err := encodeJSON(payload)
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "text/event-stream")
	resp, err := c.send(ctx, http.MethodPost, path, headers, buf, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// postMultipart uploads one file part plus plain form fields.
func (c *httpClient) postMultipart(ctx context.Context, path string, fields map[string]string, fieldName, filename string, file io.Reader, out any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, v := range fields {
		if err := writer.WriteField(key, v); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, filename))
	h.Set("Content-Type", mimeTypeFor(filename))
	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy %s: %w", filename, err)
	}
	if err := writer.Close(); err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Content-Type", writer.FormDataContentType())
	data, err := c.doRequest(ctx, http.MethodPost, path, headers, body, nil)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

func encodeJSON(payload any) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	if payload != nil {
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	}
	return buf, nil
}

func decodeJSON(data []byte, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
