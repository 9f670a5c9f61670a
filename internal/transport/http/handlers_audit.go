package httptransport

import (
	"net/http"
	"strconv"

	"vendorgate/internal/audit"
	dErrors "vendorgate/pkg/domain-errors"
	"vendorgate/pkg/platform/httputil"
)

// handleQueryAudit returns audit entries matching the query filters, newest
// first.
func (h *Handler) handleQueryAudit(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		ActorID:  r.URL.Query().Get("actor_id"),
		Action:   audit.Action(r.URL.Query().Get("action")),
		Hostname: r.URL.Query().Get("hostname"),
	}
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.auditor.Query(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit query failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query audit log"))
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
