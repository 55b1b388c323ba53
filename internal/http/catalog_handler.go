package httpapi

import (
	"net/http"

	"github.com/leonelpereyra44/pestcontrol/internal/auth"
	"github.com/leonelpereyra44/pestcontrol/internal/service"

	"go.uber.org/zap"
)

// CatalogHandler reference data for the wizard selectors.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	worker := auth.WorkerFromContext(ctx)

	var (
		items any
		err   error
	)
	switch r.URL.Path {
	case "/api/v1/catalog/clientes":
		items, err = h.catalog.ListClientes(ctx, worker)
	case "/api/v1/catalog/plantas":
		items, err = h.catalog.ListPlantas(ctx, worker, r.URL.Query().Get("cliente_id"))
	case "/api/v1/catalog/tecnicos":
		items, err = h.catalog.ListTecnicos(ctx, worker)
	case "/api/v1/catalog/productos":
		items, err = h.catalog.ListProductos(ctx, worker)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to load catalog", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}
