//go:build integration

// Package containers manages shared testcontainers instances for integration
// tests. Containers are started once per test binary and reused across
// suites; Ryuk reaps them when the run finishes.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors the table definitions documented on the postgres stores.
const schema = `
CREATE TABLE IF NOT EXISTS vendors (
    id               UUID PRIMARY KEY,
    email            TEXT NOT NULL,
    name             TEXT NOT NULL,
    company          TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL,
    payment_method   TEXT NOT NULL DEFAULT '',
    last_payout      DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_paid       DOUBLE PRECISION NOT NULL DEFAULT 0,
    encrypted_ssn    TEXT NOT NULL DEFAULT '',
    encrypted_ein    TEXT NOT NULL DEFAULT '',
    external_user_id TEXT NOT NULL DEFAULT '',
    source_hostname  TEXT NOT NULL DEFAULT '',
    address          JSONB NOT NULL DEFAULT '{}',
    metadata         JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS vendors_email_idx ON vendors (LOWER(email));

CREATE TABLE IF NOT EXISTS audit_log (
    id           UUID PRIMARY KEY,
    recorded_at  TIMESTAMPTZ NOT NULL,
    actor_id     TEXT NOT NULL,
    actor_name   TEXT NOT NULL DEFAULT '',
    action       TEXT NOT NULL,
    hostname     TEXT NOT NULL DEFAULT '',
    external_ids TEXT[] NOT NULL DEFAULT '{}',
    import_count INT NOT NULL DEFAULT 0,
    skip_count   INT NOT NULL DEFAULT 0,
    error_count  INT NOT NULL DEFAULT 0,
    metadata     JSONB NOT NULL DEFAULT '{}'
);
`

// PostgresContainer wraps a running postgres testcontainer with an open
// connection pool and the project schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	URL       string
}

// TruncateTables empties the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}

// Manager owns the singleton containers shared by every suite in a test run.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
}

var manager = &Manager{}

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return manager
}

// GetPostgres returns the shared postgres container, starting it on first use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres != nil {
		return m.postgres
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("vendorgate_test"),
		tcpostgres.WithUsername("vendorgate"),
		tcpostgres.WithPassword("vendorgate"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	m.postgres = &PostgresContainer{Container: container, DB: db, URL: url}
	return m.postgres
}
