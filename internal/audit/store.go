package audit

import "context"

// Store persists audit entries. Implementations must treat appended entries
// as immutable and must not reorder storage when queried.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

// Sink receives a copy of every recorded entry for fan-out to external
// systems. Sink failures are logged, never surfaced to the audited operation.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}
