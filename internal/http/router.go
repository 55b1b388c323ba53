package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router uses the standard http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers an http.Handler
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	withRequestID(r.mux, r.logger).ServeHTTP(w, req)
}

// API handlers mounted under /api/v1. Sello may be nil when storage is not configured.
type API struct {
	Catalog  *CatalogHandler
	Controls *ControlsHandler
	Drafts   *DraftsHandler
	Sello    *SelloHandler
}

func (r *Router) RegisterHealthRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	})
}

// RegisterAPIRoutes mounts every API route behind authn.
func (r *Router) RegisterAPIRoutes(authn *Authenticator, api API) {
	protect := func(h http.Handler) http.Handler { return authn.Wrap(h) }

	// catalog
	r.HandleHandler("/api/v1/catalog/", protect(api.Catalog))

	// controles
	r.HandleHandler("/api/v1/controles", protect(api.Controls))
	r.HandleHandler("/api/v1/controles/", protect(api.Controls))

	// drafts
	r.HandleHandler("/api/v1/drafts", protect(api.Drafts))
	r.HandleHandler("/api/v1/drafts/", protect(api.Drafts))

	// sello
	if api.Sello != nil {
		r.HandleHandler("/api/v1/sello", protect(api.Sello))
	}
}
