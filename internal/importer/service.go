package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vendorgate/internal/audit"
	"vendorgate/internal/importer/metrics"
	"vendorgate/internal/secrets"
	"vendorgate/internal/source"
	"vendorgate/internal/source/mapper"
	"vendorgate/internal/vendor"
	"vendorgate/pkg/platform/sentinel"
	"vendorgate/pkg/requestcontext"
)

const tracerName = "vendorgate/importer"

// Service runs import batches: fetch each requested external record, map it
// to the canonical shape, dedup against existing vendors, then merge or
// create. The whole dedup-then-write sequence for a record runs under the
// store's reconcile lock so two concurrent batches importing the same
// affiliate produce exactly one canonical record.
type Service struct {
	clients source.ClientFactory
	types   source.TypeCache
	store   vendor.Store
	auditor *audit.Recorder
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewService(
	clients source.ClientFactory,
	types source.TypeCache,
	store vendor.Store,
	auditor *audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		clients: clients,
		types:   types,
		store:   store,
		auditor: auditor,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Import processes one batch. A structurally invalid request (no external
// IDs, invalid connection) fails fast with Success false and touches nothing.
// Once iteration starts, every record is isolated: the result is Success true
// with per-record failures collected in Errors, and exactly one import audit
// entry records the batch outcome. Created and merged records both count as
// imported; a record that fails for any reason counts as skipped.
func (s *Service) Import(ctx context.Context, req Request) (Result, error) {
	if len(req.ExternalIDs) == 0 {
		return Result{Success: false, Errors: []ImportError{{
			Message: "no external ids supplied",
			Code:    CodeValidation,
		}}}, nil
	}
	if err := req.Connection.Validate(); err != nil {
		return Result{Success: false, Errors: []ImportError{{
			Message: err.Error(),
			Code:    CodeValidation,
		}}}, nil
	}

	ctx, span := s.tracer.Start(ctx, "importer.Import", trace.WithAttributes(
		attribute.String("source.hostname", req.Connection.Hostname),
		attribute.Int("batch.size", len(req.ExternalIDs)),
		attribute.Bool("batch.sensitive", req.ImportSensitive),
	))
	defer span.End()
	started := time.Now()

	sourceType := s.resolveSourceType(ctx, req.Connection)
	client := s.clients(req.Connection)

	result := Result{Success: true}
	seenExternalIDs := make(map[string]bool, len(req.ExternalIDs))
	seenEmails := make(map[string]bool, len(req.ExternalIDs))

	for _, externalID := range req.ExternalIDs {
		if seenExternalIDs[externalID] {
			s.fail(&result, ImportError{
				ExternalID: externalID,
				Message:    "external id repeated in batch",
				Code:       CodeDuplicate,
			})
			continue
		}
		seenExternalIDs[externalID] = true

		record, importErr := s.fetchAndMap(ctx, client, externalID, sourceType, req.ImportSensitive)
		if importErr != nil {
			s.fail(&result, *importErr)
			continue
		}

		emailKey := strings.ToLower(record.Email)
		if seenEmails[emailKey] {
			s.fail(&result, ImportError{
				ExternalID: externalID,
				Email:      record.Email,
				Message:    "email repeated in batch",
				Code:       CodeDuplicate,
			})
			continue
		}
		seenEmails[emailKey] = true

		if err := s.reconcile(ctx, req, record, &result); err != nil {
			s.fail(&result, ImportError{
				ExternalID: externalID,
				Email:      record.Email,
				Message:    err.Error(),
				Code:       CodeNetwork,
			})
		}
	}

	s.metrics.AddImported(result.Imported)
	s.metrics.AddSkipped(result.Skipped)
	s.metrics.ObserveBatchDuration(time.Since(started))
	span.SetAttributes(
		attribute.Int("batch.imported", result.Imported),
		attribute.Int("batch.skipped", result.Skipped),
		attribute.Int("batch.errors", len(result.Errors)),
	)

	s.logger.InfoContext(ctx, "import batch completed",
		"hostname", req.Connection.Hostname,
		"requested", len(req.ExternalIDs),
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	err := s.recordBatch(ctx, req, sourceType, &result)
	return result, err
}

// fetchAndMap retrieves one external record and normalizes it. Any fetch
// failure classifies as network regardless of the underlying category; the
// remote's own permission and data errors surface through the message.
func (s *Service) fetchAndMap(
	ctx context.Context,
	client source.Client,
	externalID, sourceType string,
	importSensitive bool,
) (mapper.Record, *ImportError) {
	if externalID == "" {
		return mapper.Record{}, &ImportError{
			Message: "empty external id",
			Code:    CodeMapping,
		}
	}

	raw, err := client.GetAffiliate(ctx, externalID)
	if err != nil {
		s.logger.WarnContext(ctx, "external record fetch failed",
			"external_id", externalID,
			"category", string(source.Category(err)),
			"error", err,
		)
		return mapper.Record{}, &ImportError{
			ExternalID: externalID,
			Message:    err.Error(),
			Code:       CodeNetwork,
		}
	}

	record := mapper.Map(raw, sourceType)
	if record.ExternalID == "" {
		record.ExternalID = externalID
	}

	if record.Email == "" || !strings.Contains(record.Email, "@") {
		return mapper.Record{}, &ImportError{
			ExternalID: externalID,
			Message:    "record has no usable email",
			Code:       CodeValidation,
		}
	}
	if record.Name == "" {
		return mapper.Record{}, &ImportError{
			ExternalID: externalID,
			Email:      record.Email,
			Message:    "record has no usable name",
			Code:       CodeValidation,
		}
	}
	if importSensitive {
		if record.SSN != "" && !secrets.ValidateSSN(record.SSN) {
			return mapper.Record{}, &ImportError{
				ExternalID: externalID,
				Email:      record.Email,
				Message:    "invalid ssn format",
				Code:       CodeValidation,
			}
		}
		if record.EIN != "" && !secrets.ValidateEIN(record.EIN) {
			return mapper.Record{}, &ImportError{
				ExternalID: externalID,
				Email:      record.Email,
				Message:    "invalid ein format",
				Code:       CodeValidation,
			}
		}
	}

	return record, nil
}

// reconcile deduplicates one mapped record against the store and either
// merges into the existing vendor or creates a new one. Runs entirely under
// the store's reconcile lock.
func (s *Service) reconcile(ctx context.Context, req Request, record mapper.Record, result *Result) error {
	return s.store.Reconcile(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindByEmail(ctx, record.Email)
		if errors.Is(err, sentinel.ErrNotFound) && record.ExternalUserID != "" {
			existing, err = s.store.FindByExternalUser(ctx, record.ExternalUserID, req.Connection.Hostname)
		}
		if err == nil {
			if err := s.merge(ctx, existing, record, req.Connection.Hostname); err != nil {
				return err
			}
			result.Imported++
			result.ImportedIDs = append(result.ImportedIDs, existing.ID)
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}

		created, err := s.create(ctx, req, record)
		if err != nil {
			return err
		}
		result.Imported++
		result.ImportedIDs = append(result.ImportedIDs, created.ID)
		return nil
	})
}

// merge folds an external record into an existing vendor. Identity fields
// (ID, CreatedAt, Source) are never touched; sensitive identifiers are never
// overwritten by a merge.
func (s *Service) merge(ctx context.Context, existing vendor.Vendor, record mapper.Record, hostname string) error {
	fields := vendor.UpdateFields{
		Name:      &record.Name,
		TotalPaid: &record.TotalEarnings,
		Metadata:  s.mergeMetadata(ctx, record),
	}
	if record.Company != "" {
		fields.Company = &record.Company
	}
	if record.PaymentMethod != "" {
		fields.PaymentMethod = &record.PaymentMethod
	}
	if record.ExternalUserID != "" {
		fields.ExternalUserID = &record.ExternalUserID
	}
	if hostname != "" {
		fields.SourceHostname = &hostname
	}

	if _, err := s.store.Update(ctx, existing.ID, fields); err != nil {
		return fmt.Errorf("merge vendor %s: %w", existing.ID, err)
	}
	return nil
}

func (s *Service) create(ctx context.Context, req Request, record mapper.Record) (vendor.Vendor, error) {
	input := vendor.NewVendor{
		Email:          record.Email,
		Name:           record.Name,
		Company:        record.Company,
		Source:         vendor.SourceExternalImport,
		PaymentMethod:  record.PaymentMethod,
		LastPayout:     record.LastPayoutAmount,
		TotalPaid:      record.TotalEarnings,
		ExternalUserID: record.ExternalUserID,
		SourceHostname: req.Connection.Hostname,
		Address: vendor.Address{
			Line1:      record.Address.Line1,
			Line2:      record.Address.Line2,
			City:       record.Address.City,
			State:      record.Address.State,
			PostalCode: record.Address.PostalCode,
			Country:    record.Address.Country,
		},
		Metadata: s.mergeMetadata(ctx, record),
	}
	if req.ImportSensitive {
		input.SSN = record.SSN
		input.EIN = record.EIN
	}
	if req.Category != "" {
		input.Metadata["category"] = req.Category
	}

	created, err := s.store.Create(ctx, input)
	if err != nil {
		return vendor.Vendor{}, fmt.Errorf("create vendor: %w", err)
	}
	return created, nil
}

func (s *Service) mergeMetadata(ctx context.Context, record mapper.Record) map[string]string {
	metadata := map[string]string{
		"external_id":    record.ExternalID,
		"last_merged_at": requestcontext.Now(ctx).UTC().Format(time.RFC3339),
	}
	for k, v := range record.Metadata {
		metadata[k] = v
	}
	return metadata
}

// recordBatch writes the single import audit entry for a completed batch.
func (s *Service) recordBatch(ctx context.Context, req Request, sourceType string, result *Result) error {
	metadata := map[string]string{
		"sensitive_requested": strconv.FormatBool(req.ImportSensitive),
	}
	if sourceType != "" {
		metadata["source_type"] = sourceType
	}
	if req.Category != "" {
		metadata["category"] = req.Category
	}

	entry, err := s.auditor.Record(ctx, audit.Entry{
		Action:      audit.ActionImport,
		Hostname:    req.Connection.Hostname,
		ExternalIDs: req.ExternalIDs,
		ImportCount: result.Imported,
		SkipCount:   result.Skipped,
		ErrorCount:  len(result.Errors),
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record import audit entry",
			"hostname", req.Connection.Hostname,
			"error", err,
		)
		return err
	}
	result.AuditLogID = entry.ID
	return nil
}

func (s *Service) resolveSourceType(ctx context.Context, conn source.Connection) string {
	if conn.SourceType != "" {
		return conn.SourceType
	}
	sourceType, err := s.types.Get(ctx, conn.Hostname)
	if err != nil {
		s.logger.WarnContext(ctx, "source type cache lookup failed",
			"hostname", conn.Hostname,
			"error", err,
		)
		return ""
	}
	return sourceType
}

func (s *Service) fail(result *Result, importErr ImportError) {
	result.Errors = append(result.Errors, importErr)
	result.Skipped++
	s.metrics.IncrementFailed(importErr.Code)
}
