// Package source talks to external affiliate plugins: connection checking,
// record fetching, and detection of which plugin flavor a host runs.
package source

import (
	"strings"

	dErrors "vendorgate/pkg/domain-errors"
)

// AuthType selects how requests to a source are authenticated.
type AuthType string

const (
	AuthAPIKey AuthType = "apikey"
	AuthOAuth  AuthType = "oauth"
	AuthNone   AuthType = "none"
)

// ConnectionStatus reflects the last known state of a connection.
type ConnectionStatus string

const (
	StatusPending   ConnectionStatus = "pending"
	StatusConnected ConnectionStatus = "connected"
	StatusError     ConnectionStatus = "error"
)

// Connection describes how to reach one external source. It is built fresh
// per call and never persisted; canonical records keep only the hostname for
// dedup purposes.
type Connection struct {
	Hostname   string           `json:"hostname"`
	AuthType   AuthType         `json:"auth_type"`
	Token      string           `json:"token,omitempty"`
	Status     ConnectionStatus `json:"status,omitempty"`
	SourceType string           `json:"source_type,omitempty"`
}

// Validate rejects connections before any network call is attempted. Plain
// HTTP is refused outright: tokens and tax data never travel unencrypted.
func (c Connection) Validate() error {
	if c.Hostname == "" {
		return dErrors.New(dErrors.CodeBadRequest, "hostname is required")
	}
	if !strings.HasPrefix(strings.ToLower(c.Hostname), "https://") {
		return dErrors.New(dErrors.CodeBadRequest, "hostname must use https")
	}
	switch c.AuthType {
	case AuthAPIKey, AuthOAuth:
		if c.Token == "" {
			return dErrors.New(dErrors.CodeBadRequest, "token is required for authenticated connections")
		}
	case AuthNone:
	default:
		return dErrors.New(dErrors.CodeBadRequest, "unknown auth type")
	}
	return nil
}

// StatusReport is the remote /status payload: which plugin runs there, what
// the token may read, and how many affiliate records exist.
type StatusReport struct {
	Plugin         string   `json:"plugin"`
	Version        string   `json:"version"`
	Scopes         []string `json:"scopes"`
	AffiliateCount int      `json:"affiliate_count"`
}

// TestResult summarizes a connection test for the caller. Failures are a
// structured result, not an error: bad input is the common case here.
type TestResult struct {
	Success     bool             `json:"success"`
	Status      ConnectionStatus `json:"status"`
	Message     string           `json:"message"`
	SourceType  string           `json:"source_type,omitempty"`
	Scopes      []string         `json:"scopes,omitempty"`
	RecordCount int              `json:"record_count,omitempty"`
}

// Page is one page of raw affiliate payloads from a source. Records stay
// untyped until the mapper normalizes them.
type Page struct {
	Data    []map[string]any `json:"data"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}
