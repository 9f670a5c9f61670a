package importer

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"vendorgate/internal/audit"
	"vendorgate/internal/secrets"
	"vendorgate/internal/source"
	"vendorgate/internal/source/mocks"
	"vendorgate/internal/vendor"
	"vendorgate/pkg/requestcontext"
)

type fixture struct {
	service  *Service
	client   *mocks.MockClient
	store    *vendor.InMemoryStore
	recorder *audit.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	cipher, err := secrets.New("importer-test-key")
	require.NoError(t, err)
	store := vendor.NewInMemoryStore(cipher)
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), nil, slog.Default())

	service := NewService(
		func(source.Connection) source.Client { return client },
		source.NewMemoryTypeCache(time.Minute),
		store,
		recorder,
		nil,
		slog.Default(),
	)
	return &fixture{service: service, client: client, store: store, recorder: recorder}
}

func validConnection() source.Connection {
	return source.Connection{
		Hostname:   "https://shop.example.com",
		AuthType:   source.AuthAPIKey,
		Token:      "tok",
		SourceType: "generic",
	}
}

func TestImport_RejectsEmptyBatch(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Import(context.Background(), Request{Connection: validConnection()})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeValidation, result.Errors[0].Code)

	// Structurally invalid requests leave no audit trace.
	entries, err := f.recorder.Query(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImport_RejectsInvalidConnection(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Import(context.Background(), Request{
		Connection:  source.Connection{Hostname: "http://insecure.example.com"},
		ExternalIDs: []string{"1"},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeValidation, result.Errors[0].Code)
}

func TestImport_CreatesNewVendor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client.EXPECT().GetAffiliate(gomock.Any(), "7").Return(map[string]any{
		"id":            7,
		"email":         "a@b.com",
		"displayName":   "A B",
		"totalEarnings": "650.00",
	}, nil)

	result, err := f.service.Import(ctx, Request{
		Connection:  validConnection(),
		ExternalIDs: []string{"7"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)
	require.Len(t, result.ImportedIDs, 1)
	assert.NotEmpty(t, result.AuditLogID)

	created, err := f.store.Get(ctx, result.ImportedIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", created.Email)
	assert.Equal(t, "A B", created.Name)
	assert.Equal(t, 650.00, created.TotalPaid)
	assert.Equal(t, vendor.SourceExternalImport, created.Source)
	assert.Equal(t, "https://shop.example.com", created.SourceHostname)
	assert.Equal(t, "7", created.Metadata["external_id"])
}

func TestImport_MergesIntoExistingByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.store.Create(ctx, vendor.NewVendor{
		Email:  "a@b.com",
		Name:   "Old Name",
		Source: vendor.SourceManual,
		SSN:    "123-45-6789",
	})
	require.NoError(t, err)

	f.client.EXPECT().GetAffiliate(gomock.Any(), "7").Return(map[string]any{
		"id":             "7",
		"email":          "A@B.com",
		"name":           "New Name",
		"total_earnings": 900.0,
	}, nil)

	result, err := f.service.Import(ctx, Request{
		Connection:  validConnection(),
		ExternalIDs: []string{"7"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Imported, "a merged record counts as imported")
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.ImportedIDs, 1)
	assert.Equal(t, existing.ID, result.ImportedIDs[0])

	merged, err := f.store.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", merged.Name)
	assert.Equal(t, 900.0, merged.TotalPaid)
	assert.Equal(t, existing.ID, merged.ID, "merge never reassigns identity")
	assert.Equal(t, existing.CreatedAt, merged.CreatedAt)
	assert.Equal(t, vendor.SourceManual, merged.Source, "provenance survives merges")
	assert.Equal(t, existing.EncryptedSSN, merged.EncryptedSSN, "merge never touches sensitive fields")

	vendors, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, vendors, 1, "merge must not create a second record")
}

func TestImport_MergesIntoExistingByExternalUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.store.Create(ctx, vendor.NewVendor{
		Email:          "old-address@b.com",
		Name:           "Old Name",
		Source:         vendor.SourceExternalImport,
		ExternalUserID: "42",
		SourceHostname: "https://shop.example.com",
	})
	require.NoError(t, err)

	f.client.EXPECT().GetAffiliate(gomock.Any(), "9").Return(map[string]any{
		"id":      "9",
		"user_id": "42",
		"email":   "new-address@b.com",
		"name":    "New Name",
	}, nil)

	result, err := f.service.Import(ctx, Request{
		Connection:  validConnection(),
		ExternalIDs: []string{"9"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	merged, err := f.store.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", merged.Name)
}

func TestImport_IsolatesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client.EXPECT().GetAffiliate(gomock.Any(), "1").Return(map[string]any{
		"id": "1", "email": "one@b.com", "name": "One",
	}, nil)
	f.client.EXPECT().GetAffiliate(gomock.Any(), "2").Return(nil,
		source.NewError(source.ErrorOutage, "https://shop.example.com", "request failed", nil))
	f.client.EXPECT().GetAffiliate(gomock.Any(), "3").Return(map[string]any{
		"id": "3", "email": "three@b.com", "name": "Three",
	}, nil)

	result, err := f.service.Import(ctx, Request{
		Connection:  validConnection(),
		ExternalIDs: []string{"1", "2", "3"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success, "per-record failures never fail the batch")
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped, "the failed record counts as skipped")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "2", result.Errors[0].ExternalID)
	assert.Equal(t, CodeNetwork, result.Errors[0].Code, "all fetch failures classify as network")
}

func TestImport_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client.EXPECT().GetAffiliate(gomock.Any(), "no-email").Return(map[string]any{
		"id": "10", "name": "Nameless Email",
	}, nil)
	f.client.EXPECT().GetAffiliate(gomock.Any(), "no-name").Return(map[string]any{
		"id": "11", "email": "noname@b.com",
	}, nil)

	result, err := f.service.Import(ctx, Request{
		Connection:  validConnection(),
		ExternalIDs: []string{"no-email", "no-name"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, CodeValidation, result.Errors[0].Code)
	assert.Equal(t, CodeValidation, result.Errors[1].Code)
}

func TestImport_WithinBatchDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client.EXPECT().GetAffiliate(gomock.Any(), "1").Return(map[string]any{
		"id": "1", "email": "dup@b.com", "name": "First",
	}, nil)
	f.client.EXPECT().GetAffiliate(gomock.Any(), "2").Return(map[string]any{
		"id": "2", "email": "DUP@b.com", "name": "Second",
	}, nil)

	result, err := f.service.Import(ctx, Request{
		Connection:  validConnection(),
		ExternalIDs: []string{"1", "2", "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, CodeDuplicate, result.Errors[0].Code, "repeated email within a batch")
	assert.Equal(t, CodeDuplicate, result.Errors[1].Code, "repeated external id within a batch")
}

func TestImport_SensitiveGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := map[string]any{
		"id": "5", "email": "s@b.com", "name": "Sensitive", "ssn": "123-45-6789",
	}

	f.client.EXPECT().GetAffiliate(gomock.Any(), "5").Return(payload, nil)
	result, err := f.service.Import(ctx, Request{
		Connection:  validConnection(),
		ExternalIDs: []string{"5"},
	})
	require.NoError(t, err)
	require.Len(t, result.ImportedIDs, 1)

	withheld, err := f.store.GetDecrypted(ctx, result.ImportedIDs[0])
	require.NoError(t, err)
	assert.Empty(t, withheld.SSN, "sensitive fields are dropped unless requested")

	f.client.EXPECT().GetAffiliate(gomock.Any(), "6").Return(map[string]any{
		"id": "6", "email": "s2@b.com", "name": "Sensitive Two", "ssn": "123-45-6789",
	}, nil)
	result, err = f.service.Import(ctx, Request{
		Connection:      validConnection(),
		ExternalIDs:     []string{"6"},
		ImportSensitive: true,
	})
	require.NoError(t, err)
	require.Len(t, result.ImportedIDs, 1)

	granted, err := f.store.GetDecrypted(ctx, result.ImportedIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", granted.SSN)
}

func TestImport_InvalidSensitiveFormat(t *testing.T) {
	f := newFixture(t)

	f.client.EXPECT().GetAffiliate(gomock.Any(), "5").Return(map[string]any{
		"id": "5", "email": "s@b.com", "name": "Sensitive", "ssn": "12-34",
	}, nil)

	result, err := f.service.Import(context.Background(), Request{
		Connection:      validConnection(),
		ExternalIDs:     []string{"5"},
		ImportSensitive: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeValidation, result.Errors[0].Code)
}

func TestImport_ReimportIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := map[string]any{
		"id": "7", "email": "a@b.com", "name": "A B", "total_earnings": "650.00",
	}
	f.client.EXPECT().GetAffiliate(gomock.Any(), "7").Return(payload, nil).Times(2)

	req := Request{Connection: validConnection(), ExternalIDs: []string{"7"}}

	first, err := f.service.Import(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)

	second, err := f.service.Import(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Imported, "the merge still counts as imported")
	assert.Equal(t, 0, second.Skipped)
	assert.Equal(t, first.ImportedIDs, second.ImportedIDs, "both runs touch the same vendor")

	vendors, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, vendors, 1, "re-import never duplicates the record")
}

func TestImport_WritesOneAuditEntryPerBatch(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithActor(requestcontext.WithTime(context.Background(), now), "admin-1", "Admin")

	f.client.EXPECT().GetAffiliate(gomock.Any(), "1").Return(map[string]any{
		"id": "1", "email": "one@b.com", "name": "One",
	}, nil)
	f.client.EXPECT().GetAffiliate(gomock.Any(), "2").Return(nil,
		source.NewError(source.ErrorAuthentication, "https://shop.example.com", "invalid credentials", nil))

	result, err := f.service.Import(ctx, Request{
		Connection:      validConnection(),
		ExternalIDs:     []string{"1", "2"},
		ImportSensitive: true,
	})
	require.NoError(t, err)

	entries, err := f.recorder.Query(ctx, audit.Filter{Action: audit.ActionImport})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, result.AuditLogID, entry.ID)
	assert.Equal(t, "admin-1", entry.ActorID)
	assert.Equal(t, now, entry.Timestamp)
	assert.Equal(t, "https://shop.example.com", entry.Hostname)
	assert.Equal(t, []string{"1", "2"}, entry.ExternalIDs)
	assert.Equal(t, 1, entry.ImportCount)
	assert.Equal(t, 1, entry.SkipCount)
	assert.Equal(t, 1, entry.ErrorCount)
	assert.Equal(t, "true", entry.Metadata["sensitive_requested"])
}
