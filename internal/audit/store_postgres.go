package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists the audit trail. Entries are insert-only; there is
// deliberately no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema documents the expected table. Migrations live with the deployment,
// not in this package.
//
//	CREATE TABLE audit_log (
//	    id           UUID PRIMARY KEY,
//	    recorded_at  TIMESTAMPTZ NOT NULL,
//	    actor_id     TEXT NOT NULL,
//	    actor_name   TEXT NOT NULL DEFAULT '',
//	    action       TEXT NOT NULL,
//	    hostname     TEXT NOT NULL DEFAULT '',
//	    external_ids TEXT[] NOT NULL DEFAULT '{}',
//	    import_count INT NOT NULL DEFAULT 0,
//	    skip_count   INT NOT NULL DEFAULT 0,
//	    error_count  INT NOT NULL DEFAULT 0,
//	    metadata     JSONB NOT NULL DEFAULT '{}'
//	);

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	const query = `
		INSERT INTO audit_log
			(id, recorded_at, actor_id, actor_name, action, hostname,
			 external_ids, import_count, skip_count, error_count, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.ActorID,
		entry.ActorName,
		string(entry.Action),
		entry.Hostname,
		pq.Array(entry.ExternalIDs),
		entry.ImportCount,
		entry.SkipCount,
		entry.ErrorCount,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `
		SELECT id, recorded_at, actor_id, actor_name, action, hostname,
		       external_ids, import_count, skip_count, error_count, metadata
		FROM audit_log
		WHERE ($1 = '' OR actor_id = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR hostname = $3)
		ORDER BY recorded_at DESC
	`
	args := []any{filter.ActorID, string(filter.Action), filter.Hostname}
	if filter.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var action string
		var externalIDs pq.StringArray
		var metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.ActorID,
			&entry.ActorName,
			&action,
			&entry.Hostname,
			&externalIDs,
			&entry.ImportCount,
			&entry.SkipCount,
			&entry.ErrorCount,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = Action(action)
		entry.ExternalIDs = []string(externalIDs)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
