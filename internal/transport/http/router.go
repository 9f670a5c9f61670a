// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and encode; business rules live behind them.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vendorgate/internal/audit"
	"vendorgate/internal/importer"
	"vendorgate/internal/source"
	"vendorgate/internal/vendor"
	"vendorgate/pkg/platform/httputil"
)

// Handler serves the vendor import API.
type Handler struct {
	logger   *slog.Logger
	tester   *source.Tester
	importer *importer.Service
	vendors  vendor.Store
	auditor  *audit.Recorder
}

func NewHandler(
	tester *source.Tester,
	importerService *importer.Service,
	vendors vendor.Store,
	auditor *audit.Recorder,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:   logger,
		tester:   tester,
		importer: importerService,
		vendors:  vendors,
		auditor:  auditor,
	}
}

// NewRouter wires all endpoints. Everything except health and metrics sits
// behind bearer authentication: every mutating operation needs an actor for
// the audit trail.
func NewRouter(h *Handler, verifier *JWTVerifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(logger))
	r.Use(RequestID)
	r.Use(RequestTime)
	r.Use(ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(verifier, logger))
		r.Post("/sources/test", h.handleTestConnection)
		r.Post("/imports", h.handleImport)
		r.Get("/audit", h.handleQueryAudit)
		r.Get("/vendors", h.handleListVendors)
		r.Get("/vendors/{id}", h.handleGetVendor)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
