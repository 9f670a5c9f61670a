package httptransport

import (
	"net/http"

	"vendorgate/internal/source"
	dErrors "vendorgate/pkg/domain-errors"
	"vendorgate/pkg/platform/httputil"
	"vendorgate/pkg/requestcontext"
)

// handleTestConnection probes an external source. A failed probe is a normal
// 200 response with success false; only an unrecorded audit entry is an error.
func (h *Handler) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	conn, ok := httputil.Decode[source.Connection](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.tester.Test(r.Context(), conn)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "connection test could not be audited",
			"request_id", requestcontext.RequestID(r.Context()),
			"hostname", conn.Hostname,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record connection test"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
