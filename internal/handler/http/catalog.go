package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Lava-10/knowMoreQR/internal/catalog"
	"github.com/Lava-10/knowMoreQR/internal/domain"
	"github.com/Lava-10/knowMoreQR/internal/repository"
	"github.com/Lava-10/knowMoreQR/pkg/httputil"
	"github.com/Lava-10/knowMoreQR/pkg/pagination"
)

// CatalogHandler serves read-only catalog endpoints.
type CatalogHandler struct {
	lookup catalog.Lookup
	repo   repository.CatalogRepository
	logger *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(lookup catalog.Lookup, repo repository.CatalogRepository, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		lookup: lookup,
		repo:   repo,
		logger: logger,
	}
}

// Search handles GET /api/v1/tags?q=
// An empty q returns an empty page rather than the whole catalog.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	entries, err := h.lookup.FindByText(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Paginate[domain.CatalogEntry](entries, params.Page, params.PerPage))
}

// Get handles GET /api/v1/tags/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	entry, err := h.repo.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entry})
}
