package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ChatRequest is the payload for POST /chat.
type ChatRequest struct {
	Message     string            `json:"message"`
	SessionID   string            `json:"session_id,omitempty"`
	UserContext map[string]string `json:"user_context,omitempty"`
}

// ChatReply is the backend's answer to a chat turn.
type ChatReply struct {
	Response     string `json:"response"`
	SessionID    string `json:"session_id"`
	MessageID    string `json:"message_id"`
	ResponseType string `json:"response_type,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// HealthPayload is the backend liveness report.
type HealthPayload struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// ToolsPayload lists the backend-advertised capability names.
type ToolsPayload struct {
	Tools       []string `json:"tools"`
	Description string   `json:"description"`
}

// HistoryMessage is a single prior message returned by the history endpoint.
type HistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// SessionHistory holds prior messages for a session, passed through unmodified.
type SessionHistory struct {
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
	CreatedAt string           `json:"created_at"`
}

// TransportError is the uniform failure every client operation returns.
// Callers see a short human-readable message, never raw transport details.
type TransportError struct {
	Op      string
	Message string
}

func (e *TransportError) Error() string {
	return e.Message
}

func transportErr(op string, format string, args ...interface{}) *TransportError {
	return &TransportError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// AdvisorClient talks to the advisory chatbot backend. All operations enforce
// the configured timeout and normalize failures to *TransportError.
type AdvisorClient struct {
	serverURL  string
	timeout    time.Duration
	httpClient HTTPClient
}

func newAdvisorClient(serverURL string, timeout time.Duration, hc HTTPClient) *AdvisorClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if hc == nil {
		hc = getHTTPClient()
	}
	return &AdvisorClient{
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		timeout:    timeout,
		httpClient: hc,
	}
}

// SendMessage posts one chat turn and returns the structured reply.
func (c *AdvisorClient) SendMessage(message, sessionID string, userContext map[string]string) (*ChatReply, error) {
	const op = "send"

	payload := ChatRequest{Message: message, SessionID: sessionID, UserContext: userContext}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, transportErr(op, "failed to prepare the chat request")
	}

	body, terr := c.do(op, http.MethodPost, "/chat", jsonData)
	if terr != nil {
		return nil, terr
	}

	var reply ChatReply
	if err := json.Unmarshal(body, &reply); err != nil {
		logDebug(fmt.Sprintf("chat reply decode failed: %v", err))
		return nil, transportErr(op, "the advisory service returned an unreadable reply")
	}
	return &reply, nil
}

// FetchHistory retrieves prior messages for a session.
func (c *AdvisorClient) FetchHistory(sessionID string) (*SessionHistory, error) {
	const op = "history"
	if sessionID == "" {
		return &SessionHistory{}, nil
	}

	body, terr := c.do(op, http.MethodGet, "/sessions/"+sessionID+"/history", nil)
	if terr != nil {
		return nil, terr
	}

	var hist SessionHistory
	if err := json.Unmarshal(body, &hist); err != nil {
		logDebug(fmt.Sprintf("history decode failed: %v", err))
		return nil, transportErr(op, "the advisory service returned an unreadable history")
	}
	return &hist, nil
}

// ClearSession asks the backend to discard a session. Best effort: callers
// typically log and ignore the returned error.
func (c *AdvisorClient) ClearSession(sessionID string) error {
	const op = "clear"
	if sessionID == "" {
		return nil
	}
	_, terr := c.do(op, http.MethodDelete, "/sessions/"+sessionID, nil)
	if terr != nil {
		return terr
	}
	return nil
}

// CheckHealth probes backend liveness. Any failure means "offline".
func (c *AdvisorClient) CheckHealth() (*HealthPayload, error) {
	const op = "health"

	body, terr := c.do(op, http.MethodGet, "/health", nil)
	if terr != nil {
		return nil, terr
	}

	var health HealthPayload
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, transportErr(op, "the advisory service returned an unreadable health report")
	}
	return &health, nil
}

// ListTools fetches the backend's advertised capability names (display only).
func (c *AdvisorClient) ListTools() (*ToolsPayload, error) {
	const op = "tools"

	body, terr := c.do(op, http.MethodGet, "/tools", nil)
	if terr != nil {
		return nil, terr
	}

	var tools ToolsPayload
	if err := json.Unmarshal(body, &tools); err != nil {
		return nil, transportErr(op, "the advisory service returned an unreadable tool list")
	}
	return &tools, nil
}

// do executes one HTTP exchange under the client timeout and folds every
// failure mode into a *TransportError.
func (c *AdvisorClient) do(op, method, path string, jsonBody []byte) ([]byte, *TransportError) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if jsonBody != nil {
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, bodyReader)
	if err != nil {
		return nil, transportErr(op, "failed to build the backend request")
	}
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logDebug(fmt.Sprintf("%s request failed: %v", op, err))
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, transportErr(op, "the advisory service took too long to respond")
		}
		return nil, transportErr(op, "the advisory service could not be reached")
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, transportErr(op, "the advisory service connection was interrupted")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, transportErr(op, "the advisory service reported a problem: %s", prettyServerError(resp, body))
	}

	return body, nil
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return false
}
