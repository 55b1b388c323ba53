package httpapi

import (
	"net/http"

	"github.com/leonelpereyra44/pestcontrol/internal/signature"

	"go.uber.org/zap"
)

// SelloHandler resolves a technician's signature stamp.
type SelloHandler struct {
	signatures *signature.Resolver
	logger     *zap.Logger
}

func NewSelloHandler(signatures *signature.Resolver, logger *zap.Logger) *SelloHandler {
	return &SelloHandler{signatures: signatures, logger: logger}
}

// ServeHTTP GET /api/v1/sello?tecnico_id=. Storage failures still answer with
// the error state so the wizard can show its message.
func (h *SelloHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := h.signatures.Lookup(r.Context(), r.URL.Query().Get("tecnico_id"))
	if err != nil {
		writeJSON(w, statusFor(err), Result[signature.Result]{
			Code:    ResultError,
			Type:    "error",
			Message: res.Message,
			Result:  res,
		})
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}
