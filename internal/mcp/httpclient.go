package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/claude/fitplan/internal/store"
	"github.com/google/uuid"
)

// HTTPClient implements Workouts by driving one session on a fitplan server
// through its REST API. Used for remote MCP mode where the binary runs
// locally (stdio) but the workout state lives on the server (accessed over
// Tailscale). The session is opened on first use.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu        sync.Mutex
	sessionID uuid.UUID
}

const (
	loadPollInterval = 25 * time.Millisecond
	loadWaitTimeout  = 30 * time.Second
)

// Compile-time check: HTTPClient satisfies Workouts.
var _ Workouts = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty when the server does not require one.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a request and returns the status and body. Non-2xx statuses are
// not errors here; callers decide what they mean.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// session returns the remote session id, opening one if needed. A new
// session is returned only once its plan load has finished.
func (c *HTTPClient) session(ctx context.Context) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != uuid.Nil {
		return c.sessionID, nil
	}

	status, body, err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil)
	if err != nil {
		return uuid.Nil, err
	}
	if status != http.StatusCreated {
		return uuid.Nil, fmt.Errorf("httpclient: open session returned %d: %s", status, body)
	}
	var resp struct {
		ID       uuid.UUID      `json:"id"`
		Snapshot store.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return uuid.Nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	c.sessionID = resp.ID
	if err := c.awaitLoaded(ctx, resp.ID, resp.Snapshot.Status); err != nil {
		return uuid.Nil, err
	}
	return c.sessionID, nil
}

// awaitLoaded polls session id until its status leaves pending.
func (c *HTTPClient) awaitLoaded(ctx context.Context, id uuid.UUID, status store.Status) error {
	ctx, cancel := context.WithTimeout(ctx, loadWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(loadPollInterval)
	defer ticker.Stop()
	for status == store.StatusPending {
		select {
		case <-ctx.Done():
			return fmt.Errorf("httpclient: waiting for plan load: %w", ctx.Err())
		case <-ticker.C:
		}
		snap, _, err := c.fetchSnapshot(ctx, id)
		if err != nil {
			return err
		}
		status = snap.Status
	}
	return nil
}

// fetchSnapshot reads the snapshot of session id. The HTTP status is
// returned alongside any error.
func (c *HTTPClient) fetchSnapshot(ctx context.Context, id uuid.UUID) (store.Snapshot, int, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id.String(), nil)
	if err != nil {
		return store.Snapshot{}, 0, err
	}
	if status != http.StatusOK {
		return store.Snapshot{}, status, fmt.Errorf("httpclient: snapshot returned %d: %s", status, body)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return store.Snapshot{}, status, fmt.Errorf("httpclient: decode snapshot: %w", err)
	}
	return snap, status, nil
}

// forget drops a session the server no longer knows, so the next call opens
// a fresh one.
func (c *HTTPClient) forget(id uuid.UUID) {
	c.mu.Lock()
	if c.sessionID == id {
		c.sessionID = uuid.Nil
	}
	c.mu.Unlock()
}

func (c *HTTPClient) Snapshot(ctx context.Context) (store.Snapshot, error) {
	id, err := c.session(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap, status, err := c.fetchSnapshot(ctx, id)
	if status == http.StatusNotFound {
		c.forget(id)
	}
	return snap, err
}

func (c *HTTPClient) SelectDay(ctx context.Context, day int) (store.Outcome, error) {
	return c.mutate(ctx, "select", map[string]int{"day": day})
}

func (c *HTTPClient) ToggleExerciseCompletion(ctx context.Context, day, exerciseID int) (store.Outcome, error) {
	return c.mutate(ctx, "toggle", map[string]int{"day": day, "exercise_id": exerciseID})
}

// mutate posts to a session action and maps the response back to an outcome.
func (c *HTTPClient) mutate(ctx context.Context, action string, payload any) (store.Outcome, error) {
	id, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	path := "/api/v1/sessions/" + id.String() + "/" + action
	status, body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return 0, err
	}

	switch status {
	case http.StatusOK:
		return store.OK, nil
	case http.StatusConflict:
		return store.NotLoaded, nil
	case http.StatusGone:
		c.forget(id)
		return store.Closed, nil
	case http.StatusNotFound:
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		switch e.Error {
		case store.NoSuchDay.String():
			return store.NoSuchDay, nil
		case store.NoSuchExercise.String():
			return store.NoSuchExercise, nil
		}
		c.forget(id)
	}
	return 0, fmt.Errorf("httpclient: %s returned %d: %s", action, status, body)
}

// Close ends the remote session, if one was opened.
func (c *HTTPClient) Close(ctx context.Context) error {
	c.mu.Lock()
	id := c.sessionID
	c.sessionID = uuid.Nil
	c.mu.Unlock()
	if id == uuid.Nil {
		return nil
	}

	status, body, err := c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+id.String(), nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("httpclient: close session returned %d: %s", status, body)
	}
	return nil
}
