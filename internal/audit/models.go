package audit

import "time"

// Action tags what kind of operation produced an entry.
type Action string

const (
	ActionConnectionTest Action = "connection_test"
	ActionImport         Action = "import"
	ActionRecordCreate   Action = "record_create"
	ActionRecordUpdate   Action = "record_update"
)

// Entry is one immutable line of the audit trail. ID and Timestamp are
// assigned by the Recorder; everything else is supplied by the operation
// being audited. Entries are never mutated or deleted after creation.
type Entry struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	ActorID     string            `json:"actor_id"`
	ActorName   string            `json:"actor_name,omitempty"`
	Action      Action            `json:"action"`
	Hostname    string            `json:"hostname,omitempty"`
	ExternalIDs []string          `json:"external_ids,omitempty"`
	ImportCount int               `json:"import_count"`
	SkipCount   int               `json:"skip_count"`
	ErrorCount  int               `json:"error_count"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Filter narrows a query. Zero-valued fields are ignored; set fields are
// combined with AND.
type Filter struct {
	ActorID  string
	Action   Action
	Hostname string
	Limit    int
}

// clone returns a deep copy so stored entries can never be mutated through
// values handed back to callers.
func (e Entry) clone() Entry {
	out := e
	if e.ExternalIDs != nil {
		out.ExternalIDs = append([]string(nil), e.ExternalIDs...)
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
