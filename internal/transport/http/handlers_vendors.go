package httptransport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vendorgate/internal/secrets"
	"vendorgate/internal/vendor"
	dErrors "vendorgate/pkg/domain-errors"
	"vendorgate/pkg/platform/httputil"
	"vendorgate/pkg/platform/sentinel"
	"vendorgate/pkg/requestcontext"
)

// vendorResponse controls how tax identifiers leave the service: masked by
// default, plaintext only when explicitly requested.
type vendorResponse struct {
	vendor.Vendor
	SSN string `json:"ssn,omitempty"`
	EIN string `json:"ein,omitempty"`
}

func (h *Handler) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendors.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "vendor list failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vendors"))
		return
	}
	if vendors == nil {
		vendors = []vendor.Vendor{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"vendors": vendors,
		"count":   len(vendors),
	})
}

// handleGetVendor returns one vendor. Tax identifiers come back masked unless
// decrypted=true; plaintext access is logged against the requesting actor.
func (h *Handler) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.vendors.GetDecrypted(r.Context(), id)
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "vendor not found"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "vendor lookup failed", "vendor_id", id, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vendor"))
		return
	}

	resp := vendorResponse{Vendor: record}
	if r.URL.Query().Get("decrypted") == "true" {
		h.logger.InfoContext(r.Context(), "decrypted vendor access",
			"vendor_id", id,
			"actor_id", requestcontext.ActorID(r.Context()),
		)
		resp.SSN = record.SSN
		resp.EIN = record.EIN
	} else {
		if record.SSN != "" {
			resp.SSN = secrets.MaskSSN(record.SSN)
		}
		if record.EIN != "" {
			resp.EIN = secrets.MaskEIN(record.EIN)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
