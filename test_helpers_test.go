package foundry

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to start test server listener: %v", err)
	}
	server := httptest.NewUnstartedServer(handler)
	server.Listener = ln
	server.Start()
	return server
}

// testConfig points a Config at server with API key auth and fast retries.
func testConfig(server *httptest.Server) Config {
	return Config{
		Endpoint:             server.URL,
		Deployment:           "gpt-4o",
		APIKey:               "k",
		Timeout:              time.Second,
		MaxRetries:           0,
		RetryInitialInterval: 5 * time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		RetryMultiplier:      1,
		RetryJitter:          0,
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := newTestServer(t, handler)
	t.Cleanup(server.Close)

	client, err := NewClientWithConfig(testConfig(server))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// scriptedRuns answers GetRun with one status per call. The last status
// repeats once the script is exhausted.
type scriptedRuns struct {
	mu       sync.Mutex
	statuses []RunStatus
	errAt    map[int]error
	calls    int
}

func (s *scriptedRuns) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := s.calls
	s.calls++
	if err, ok := s.errAt[call]; ok {
		return Run{}, err
	}
	status := s.statuses[len(s.statuses)-1]
	if call < len(s.statuses) {
		status = s.statuses[call]
	}
	return Run{ID: runID, ThreadID: threadID, Status: status}, nil
}

func (s *scriptedRuns) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func (c *fakeClock) options() []PollerOption {
	return []PollerOption{WithClock(c.Now), WithSleep(c.Sleep)}
}
