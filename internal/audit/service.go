package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"vendorgate/pkg/requestcontext"
)

// Recorder is the append-only audit logger. It assigns identity and time to
// entries, persists them through the storage layer, and fans copies out to an
// optional sink inbox so external publishing stays off the hot path.
type Recorder struct {
	store  Store
	inbox  chan<- Entry
	logger *slog.Logger
}

// NewRecorder builds a Recorder. inbox may be nil when no sink is configured.
func NewRecorder(store Store, inbox chan<- Entry, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, inbox: inbox, logger: logger}
}

// Record assigns a unique ID and the current timestamp, stores the entry, and
// returns the stored copy. The returned value is detached from storage:
// mutating it cannot alter the trail.
func (r *Recorder) Record(ctx context.Context, entry Entry) (Entry, error) {
	entry.ID = uuid.NewString()
	entry.Timestamp = requestcontext.Now(ctx)
	if entry.ActorID == "" {
		entry.ActorID = requestcontext.ActorID(ctx)
	}
	if entry.ActorName == "" {
		entry.ActorName = requestcontext.ActorName(ctx)
	}

	stored := entry.clone()
	if err := r.store.Append(ctx, stored); err != nil {
		return Entry{}, err
	}

	if r.inbox != nil {
		select {
		case r.inbox <- stored.clone():
		default:
			// Fan-out is best effort; a full inbox must not block or fail
			// the audited operation.
			r.logger.WarnContext(ctx, "audit sink inbox full, dropping fan-out copy",
				"entry_id", stored.ID,
				"action", stored.Action,
			)
		}
	}

	return stored.clone(), nil
}

// Query returns entries matching all set filter fields, newest first,
// truncated to filter.Limit when given.
func (r *Recorder) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	return r.store.List(ctx, filter)
}
