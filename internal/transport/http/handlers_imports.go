package httptransport

import (
	"net/http"

	"vendorgate/internal/importer"
	dErrors "vendorgate/pkg/domain-errors"
	"vendorgate/pkg/platform/httputil"
	"vendorgate/pkg/requestcontext"
)

// handleImport runs one import batch. Per-record failures ride inside the
// result; a structurally invalid request is a 400 with the same result shape.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[importer.Request](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.importer.Import(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "import batch could not be audited",
			"request_id", requestcontext.RequestID(r.Context()),
			"hostname", req.Connection.Hostname,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record import"))
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	httputil.WriteJSON(w, status, result)
}
