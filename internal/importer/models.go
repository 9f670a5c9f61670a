// Package importer reconciles batches of external affiliate records into the
// canonical vendor store. Each record in a batch succeeds or fails on its own;
// one bad payload never sinks its siblings.
package importer

import "vendorgate/internal/source"

// Error codes classifying why a single record failed.
const (
	CodeDuplicate  = "duplicate"
	CodeValidation = "validation"
	CodeMapping    = "mapping"
	CodePermission = "permission"
	CodeNetwork    = "network"
)

// Request is one import batch. ExternalIDs are the source-native affiliate
// identifiers to fetch. Sensitive tax identifiers are only imported when
// ImportSensitive is set, regardless of what the source returns.
type Request struct {
	Connection      source.Connection `json:"connection"`
	ExternalIDs     []string          `json:"external_ids"`
	ImportSensitive bool              `json:"import_sensitive"`
	Category        string            `json:"category,omitempty"`
}

// ImportError describes one failed record. Email may be empty when the
// failure happened before the payload could be mapped.
type ImportError struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email,omitempty"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

// Result summarizes a batch. Success reports whether the batch ran to
// completion; individual failures land in Errors without flipping it. A
// structurally invalid request is the only thing that yields Success false.
type Result struct {
	Success     bool          `json:"success"`
	Imported    int           `json:"imported"`
	Skipped     int           `json:"skipped"`
	Errors      []ImportError `json:"errors,omitempty"`
	ImportedIDs []string      `json:"imported_ids,omitempty"`
	AuditLogID  string        `json:"audit_log_id,omitempty"`
}
