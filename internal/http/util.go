package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// request bodies beyond this are truncated and fail to decode
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, out)
}

// pathID returns the segment after prefix, e.g. "/api/v1/drafts/7/puntos" with
// prefix "/api/v1/drafts/" yields ("7", "puntos").
func pathID(path, prefix string) (id, rest string) {
	tail := strings.TrimPrefix(path, prefix)
	id, rest, _ = strings.Cut(tail, "/")
	return id, rest
}
