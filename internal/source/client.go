package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// REST paths shared by the affiliate bridge plugins this service knows how to
// talk to. Hosts running an unknown plugin expose the same surface through
// the generic bridge.
const (
	statusPath     = "/wp-json/affiliate-bridge/v1/status"
	affiliatesPath = "/wp-json/affiliate-bridge/v1/affiliates"
)

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client

// Client fetches status and affiliate records from one external source.
type Client interface {
	Status(ctx context.Context) (StatusReport, error)
	ListAffiliates(ctx context.Context, page, perPage int) (Page, error)
	GetAffiliate(ctx context.Context, externalID string) (map[string]any, error)
}

// ClientFactory builds a Client for a connection. The importer and tester
// take a factory so tests can substitute fakes per connection.
type ClientFactory func(conn Connection) Client

// HTTPClient is the production Client. Every request carries the connection's
// bearer token (unless auth is none) and a hard timeout: an unresponsive
// source fails the call, it does not hang the batch.
type HTTPClient struct {
	conn Connection
	http *http.Client
}

// NewHTTPClient builds a client for one connection.
func NewHTTPClient(conn Connection, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		conn: conn,
		http: &http.Client{Timeout: timeout},
	}
}

// NewClientFactory returns a ClientFactory producing HTTPClients with the
// given timeout.
func NewClientFactory(timeout time.Duration) ClientFactory {
	return func(conn Connection) Client {
		return NewHTTPClient(conn, timeout)
	}
}

func (c *HTTPClient) Status(ctx context.Context) (StatusReport, error) {
	var report StatusReport
	if err := c.get(ctx, c.conn.Hostname+statusPath, &report); err != nil {
		return StatusReport{}, err
	}
	return report, nil
}

func (c *HTTPClient) ListAffiliates(ctx context.Context, page, perPage int) (Page, error) {
	url := fmt.Sprintf("%s%s?page=%s&per_page=%s",
		c.conn.Hostname, affiliatesPath,
		strconv.Itoa(page), strconv.Itoa(perPage),
	)
	var result Page
	if err := c.get(ctx, url, &result); err != nil {
		return Page{}, err
	}
	return result, nil
}

func (c *HTTPClient) GetAffiliate(ctx context.Context, externalID string) (map[string]any, error) {
	var record map[string]any
	url := c.conn.Hostname + affiliatesPath + "/" + externalID
	if err := c.get(ctx, url, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *HTTPClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewError(ErrorOutage, c.conn.Hostname, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.conn.AuthType != AuthNone {
		req.Header.Set("Authorization", "Bearer "+c.conn.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return NewError(ErrorOutage, c.conn.Hostname, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(ErrorBadData, c.conn.Hostname, "malformed response body", err)
	}
	return nil
}

// errorBody is the JSON error shape the bridge plugins return alongside
// non-2xx statuses. Sources that return something else still get a sane
// message from the status code alone.
type errorBody struct {
	Error string `json:"error"`
	Scope string `json:"scope"`
}

func (c *HTTPClient) statusError(resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return NewError(ErrorAuthentication, c.conn.Hostname, "invalid credentials", nil)
	case http.StatusForbidden:
		scope := body.Scope
		if scope == "" {
			scope = "unknown"
		}
		return NewError(ErrorPermission, c.conn.Hostname, "missing scope: "+scope, nil)
	case http.StatusUnprocessableEntity:
		return NewError(ErrorBadData, c.conn.Hostname, withRemoteDetail("mapping/validation conflict", body.Error), nil)
	case http.StatusTooManyRequests:
		return NewError(ErrorRateLimited, c.conn.Hostname, "rate limited", nil)
	case http.StatusNotFound:
		return NewError(ErrorNotFound, c.conn.Hostname, "record not found", nil)
	default:
		return NewError(ErrorOutage, c.conn.Hostname,
			withRemoteDetail(fmt.Sprintf("unexpected status %d", resp.StatusCode), body.Error), nil)
	}
}

// withRemoteDetail appends the remote's own error message when it sent one.
func withRemoteDetail(msg, detail string) string {
	if detail == "" {
		return msg
	}
	return msg + ": " + detail
}
