package source

import (
	"context"
	"log/slog"
	"strconv"

	"vendorgate/internal/audit"
)

// Tester verifies reachability and authentication against an external source
// without mutating any vendor data. Every call writes exactly one audit
// entry, success or failure; that write is part of the operation's contract,
// not optional instrumentation.
type Tester struct {
	clients ClientFactory
	types   TypeCache
	auditor *audit.Recorder
	logger  *slog.Logger
}

func NewTester(clients ClientFactory, types TypeCache, auditor *audit.Recorder, logger *slog.Logger) *Tester {
	return &Tester{clients: clients, types: types, auditor: auditor, logger: logger}
}

// Test probes the source's status endpoint and reports its capabilities.
// Invalid connections are rejected before any network traffic.
func (t *Tester) Test(ctx context.Context, conn Connection) (TestResult, error) {
	if err := conn.Validate(); err != nil {
		result := TestResult{
			Success: false,
			Status:  StatusError,
			Message: err.Error(),
		}
		return result, t.recordTest(ctx, conn, result)
	}

	report, err := t.clients(conn).Status(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "connection test failed",
			"hostname", conn.Hostname,
			"category", string(Category(err)),
			"error", err,
		)
		result := TestResult{
			Success: false,
			Status:  StatusError,
			Message: err.Error(),
		}
		return result, t.recordTest(ctx, conn, result)
	}

	result := TestResult{
		Success:     true,
		Status:      StatusConnected,
		Message:     "connection established",
		SourceType:  report.Plugin,
		Scopes:      report.Scopes,
		RecordCount: report.AffiliateCount,
	}

	// Remember the detected plugin so fetches in this session dispatch the
	// right mapping strategy without another probe.
	if report.Plugin != "" {
		if err := t.types.Set(ctx, conn.Hostname, report.Plugin); err != nil {
			t.logger.WarnContext(ctx, "failed to cache detected source type",
				"hostname", conn.Hostname,
				"error", err,
			)
		}
	}

	return result, t.recordTest(ctx, conn, result)
}

// DetectedType returns the cached plugin type for a hostname, or "" when
// nothing was detected recently.
func (t *Tester) DetectedType(ctx context.Context, hostname string) string {
	sourceType, err := t.types.Get(ctx, hostname)
	if err != nil {
		t.logger.WarnContext(ctx, "source type cache lookup failed", "hostname", hostname, "error", err)
		return ""
	}
	return sourceType
}

func (t *Tester) recordTest(ctx context.Context, conn Connection, result TestResult) error {
	metadata := map[string]string{
		"success": strconv.FormatBool(result.Success),
		"message": result.Message,
	}
	if result.SourceType != "" {
		metadata["source_type"] = result.SourceType
	}
	if result.Success {
		metadata["record_count"] = strconv.Itoa(result.RecordCount)
	}

	_, err := t.auditor.Record(ctx, audit.Entry{
		Action:   audit.ActionConnectionTest,
		Hostname: conn.Hostname,
		Metadata: metadata,
	})
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to record connection test audit entry",
			"hostname", conn.Hostname,
			"error", err,
		)
	}
	return err
}
