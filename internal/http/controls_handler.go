package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/auth"
	"github.com/leonelpereyra44/pestcontrol/internal/collection"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/repository"
	"github.com/leonelpereyra44/pestcontrol/internal/service"

	"go.uber.org/zap"
)

const controlsPrefix = "/api/v1/controles/"

// ControlsHandler saved inspection controls.
type ControlsHandler struct {
	controls *service.ControlService
	logger   *zap.Logger
}

func NewControlsHandler(controls *service.ControlService, logger *zap.Logger) *ControlsHandler {
	return &ControlsHandler{controls: controls, logger: logger}
}

// controlRequest body of create and update.
type controlRequest struct {
	domain.ControlForm
	FirmaTecnico string                    `json:"firma_tecnico,omitempty"`
	Productos    []collection.ProductInput `json:"productos"`
	Puntos       []collection.PointInput   `json:"puntos"`
}

func (h *ControlsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/controles" && r.Method == http.MethodGet:
		h.List(w, r)
	case r.URL.Path == "/api/v1/controles" && r.Method == http.MethodPost:
		h.Create(w, r)
	case strings.HasPrefix(r.URL.Path, controlsPrefix):
		id, rest := pathID(r.URL.Path, controlsPrefix)
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case rest == "" && r.Method == http.MethodGet:
			h.Get(w, r, id)
		case rest == "" && r.Method == http.MethodPut:
			h.Update(w, r, id)
		case rest == "export" && r.Method == http.MethodGet:
			h.Export(w, r, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// List GET /api/v1/controles?cliente_id=&tecnico_id=&desde=&hasta=&limit=
func (h *ControlsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &repository.ControlFilters{
		ClienteID: q.Get("cliente_id"),
		TecnicoID: q.Get("tecnico_id"),
		Desde:     q.Get("desde"),
		Hasta:     q.Get("hasta"),
	}
	items, err := h.controls.List(r.Context(), auth.WorkerFromContext(r.Context()), filters, parseInt(q.Get("limit"), 0))
	if err != nil {
		h.logger.Error("Failed to list controls", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

func (h *ControlsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	detail, err := h.controls.Get(r.Context(), auth.WorkerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(detail))
}

func (h *ControlsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, products, points, ok := h.decode(w, r)
	if !ok {
		return
	}
	worker := auth.WorkerFromContext(r.Context())
	firma := h.controls.SignaturePath(r.Context(), req.ControlForm, req.FirmaTecnico)
	control, err := h.controls.Create(r.Context(), worker, req.ControlForm, products, points, firma)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(control))
}

func (h *ControlsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	req, products, points, ok := h.decode(w, r)
	if !ok {
		return
	}
	worker := auth.WorkerFromContext(r.Context())
	firma := h.controls.SignaturePath(r.Context(), req.ControlForm, req.FirmaTecnico)
	control, err := h.controls.Update(r.Context(), worker, id, req.ControlForm, products, points, firma)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(control))
}

// Export GET /api/v1/controles/{id}/export
func (h *ControlsHandler) Export(w http.ResponseWriter, r *http.Request, id string) {
	data, filename, err := h.controls.Export(r.Context(), auth.WorkerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decode reads the body and runs the collection rules over its lines.
func (h *ControlsHandler) decode(w http.ResponseWriter, r *http.Request) (*controlRequest, *collection.Products, *collection.Points, bool) {
	var req controlRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, apperrors.Validation("Cuerpo de la solicitud inválido"))
		return nil, nil, nil, false
	}

	products := collection.NewProducts()
	for i, in := range req.Productos {
		if err := products.Add(in); err != nil {
			writeError(w, fmt.Errorf("producto %d: %w", i+1, err))
			return nil, nil, nil, false
		}
	}
	points := collection.NewPoints()
	for _, in := range req.Puntos {
		if err := points.Add(in); err != nil {
			writeError(w, err)
			return nil, nil, nil, false
		}
	}
	return &req, products, points, true
}
