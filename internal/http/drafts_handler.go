package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/auth"
	"github.com/leonelpereyra44/pestcontrol/internal/collection"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/service"

	"go.uber.org/zap"
)

const draftsPrefix = "/api/v1/drafts/"

// DraftsHandler wizard drafts kept in the local store.
type DraftsHandler struct {
	drafts *service.DraftService
	logger *zap.Logger
}

func NewDraftsHandler(drafts *service.DraftService, logger *zap.Logger) *DraftsHandler {
	return &DraftsHandler{drafts: drafts, logger: logger}
}

func (h *DraftsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/drafts" && r.Method == http.MethodGet:
		h.List(w, r)
	case r.URL.Path == "/api/v1/drafts" && r.Method == http.MethodPost:
		h.Save(w, r, 0)
	case strings.HasPrefix(r.URL.Path, draftsPrefix):
		raw, rest := pathID(r.URL.Path, draftsPrefix)
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case rest == "" && r.Method == http.MethodGet:
			h.Get(w, r, id)
		case rest == "" && r.Method == http.MethodPut:
			h.Save(w, r, id)
		case rest == "" && r.Method == http.MethodDelete:
			h.Delete(w, r, id)
		case rest == "productos" && r.Method == http.MethodPut:
			h.SyncProducts(w, r, id)
		case rest == "puntos" && r.Method == http.MethodPut:
			h.SyncPoints(w, r, id)
		case rest == "submit" && r.Method == http.MethodPost:
			h.Submit(w, r, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *DraftsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.drafts.List(r.Context(), auth.WorkerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

func (h *DraftsHandler) Get(w http.ResponseWriter, r *http.Request, id int64) {
	detail, err := h.drafts.Get(r.Context(), auth.WorkerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(detail))
}

// Save creates a draft (id 0) or overwrites draft id.
func (h *DraftsHandler) Save(w http.ResponseWriter, r *http.Request, id int64) {
	var d domain.DraftControl
	if err := readBodyJSON(r, maxBodyBytes, &d); err != nil {
		writeError(w, apperrors.Validation("Cuerpo de la solicitud inválido"))
		return
	}
	d.LocalID = id

	localID, err := h.drafts.Save(r.Context(), auth.WorkerFromContext(r.Context()), &d)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, Ok(map[string]any{"local_id": localID}))
}

func (h *DraftsHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.drafts.Delete(r.Context(), auth.WorkerFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"local_id": id}))
}

// SyncProducts PUT /api/v1/drafts/{id}/productos {"productos": [...]}
func (h *DraftsHandler) SyncProducts(w http.ResponseWriter, r *http.Request, id int64) {
	var body struct {
		Productos []collection.ProductInput `json:"productos"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, apperrors.Validation("Cuerpo de la solicitud inválido"))
		return
	}
	items, err := h.drafts.SyncProducts(r.Context(), auth.WorkerFromContext(r.Context()), id, body.Productos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// SyncPoints PUT /api/v1/drafts/{id}/puntos {"puntos": [...]}
func (h *DraftsHandler) SyncPoints(w http.ResponseWriter, r *http.Request, id int64) {
	var body struct {
		Puntos []collection.PointInput `json:"puntos"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeError(w, apperrors.Validation("Cuerpo de la solicitud inválido"))
		return
	}
	items, err := h.drafts.SyncPoints(r.Context(), auth.WorkerFromContext(r.Context()), id, body.Puntos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// Submit POST /api/v1/drafts/{id}/submit
func (h *DraftsHandler) Submit(w http.ResponseWriter, r *http.Request, id int64) {
	control, err := h.drafts.Submit(r.Context(), auth.WorkerFromContext(r.Context()), id)
	if err != nil {
		if control != nil {
			// the control is saved; only the local cleanup failed
			h.logger.Warn("Draft submitted but not discarded", zap.Int64("local_id", id), zap.Error(err))
			writeJSON(w, http.StatusOK, Result[*domain.Control]{
				Code:    ResultSuccess,
				Type:    "warning",
				Message: "Control guardado, pero el borrador local no pudo eliminarse",
				Result:  control,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(control))
}
