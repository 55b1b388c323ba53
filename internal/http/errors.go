package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/auth"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case apperrors.IsRemote(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the text shown to the user. Validation messages pass
// through as written; everything else gets a generic message.
func messageFor(err error) string {
	var ve *apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "No autorizado"
	case errors.Is(err, apperrors.ErrNotFound):
		return "No encontrado"
	case errors.Is(err, context.DeadlineExceeded):
		return "El servidor de datos no respondió a tiempo"
	case apperrors.IsRemote(err):
		return "Error al comunicarse con el servidor de datos"
	case apperrors.IsLocalStorage(err):
		return "Error en el almacenamiento local de borradores"
	default:
		return "Error interno"
	}
}

func writeError(w http.ResponseWriter, err error) {
	res := Fail(messageFor(err))
	if errors.Is(err, auth.ErrTokenExpired) {
		res.Code = ResultTokenExpired
	}
	writeJSON(w, statusFor(err), res)
}
