package helpdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/logger"
	"github.com/fixboard/fixboard/internal/ports"
)

// Client implements ports.HelpdeskService against the helpdesk backend
// HTTP API. Every request carries the bearer credential from the
// session; when no credential is stored the request is never issued.
type Client struct {
	baseURL     string
	credentials ports.CredentialStore
	httpClient  *http.Client
	log         logger.Logger
}

var _ ports.HelpdeskService = (*Client)(nil)

// NewClient creates a backend client
func NewClient(baseURL string, credentials ports.CredentialStore, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// errorBody is the backend's error envelope
type errorBody struct {
	Message string `json:"message"`
}

// ListTickets retrieves the full current ticket set
func (c *Client) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/repairs", nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdateTicket applies a partial update and returns the accepted ticket
func (c *Client) UpdateTicket(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	var ticket domain.Ticket
	path := fmt.Sprintf("/repairs/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, patch, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListStaff retrieves the assignable-agent roster
func (c *Client) ListStaff(ctx context.Context) ([]domain.Agent, error) {
	var agents []domain.Agent
	if err := c.do(ctx, http.MethodGet, "/users/it-staff", nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// Profile retrieves the identity of the operator owning the credential
func (c *Client) Profile(ctx context.Context) (*domain.Agent, error) {
	var agent domain.Agent
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// do executes one authenticated request and decodes the response into
// out. Non-2xx responses are classified through the engine error codes.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return err
	}

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return domain.WrapEngineError(domain.ErrCodeValidation, err, "request body could not be encoded")
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return domain.WrapEngineError(domain.ErrCodeFetch, err, "request could not be created")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID(ctx))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapEngineError(domain.ErrCodeFetch, err, "helpdesk backend unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.WrapEngineError(domain.ErrCodeFetch, err, "helpdesk response could not be decoded")
		}
		return nil
	}

	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	message := eb.Message
	if message == "" {
		message = resp.Status
	}

	c.log.Debug(ctx, "helpdesk request rejected", map[string]interface{}{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	})

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewEngineError(domain.ErrCodeUnauthorized, "%s", message)
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewEngineError(domain.ErrCodeNotFound, "%s", message)
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return domain.NewEngineError(domain.ErrCodeConflict, "%s", message)
	default:
		return domain.NewEngineError(domain.ErrCodeFetch, "helpdesk backend returned %d: %s", resp.StatusCode, message)
	}
}

// correlationID reuses the inbound request's correlation ID when one is
// on the context, so backend calls can be traced end to end
func correlationID(ctx context.Context) string {
	if cid := logger.CorrelationID(ctx); cid != "" {
		return cid
	}
	return uuid.NewString()
}
