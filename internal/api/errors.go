// ABOUTME: Single mapping from error kinds to HTTP status codes and bodies
// ABOUTME: Authentication failures share one generic body; storage failures reveal nothing

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/dictionary"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

type errorMapping struct {
	status  int
	message string
}

const (
	msgRejected = "request rejected"
	msgInternal = "internal error"
)

// errorsByKind is the only place error kinds become HTTP responses.
var errorsByKind = map[auth.Kind]errorMapping{
	auth.KindSignatureInvalid:      {http.StatusUnauthorized, msgRejected},
	auth.KindChallengeInvalid:      {http.StatusUnauthorized, msgRejected},
	auth.KindUnknownUser:           {http.StatusUnauthorized, msgRejected},
	auth.KindKeyDecode:             {http.StatusUnauthorized, msgRejected},
	auth.KindInsufficientPrivilege: {http.StatusForbidden, "insufficient privilege"},
	auth.KindUserExists:            {http.StatusConflict, "user already exists"},
	auth.KindInvalidRequest:        {http.StatusBadRequest, "invalid request"},
	auth.KindStorage:               {http.StatusInternalServerError, msgInternal},
	auth.KindUnknown:               {http.StatusInternalServerError, msgInternal},
}

// mapError picks the status and message for err.
func mapError(err error) errorMapping {
	if errors.Is(err, dictionary.ErrNotFound) {
		return errorMapping{http.StatusNotFound, "not found"}
	}
	m, ok := errorsByKind[auth.KindOf(err)]
	if !ok {
		return errorMapping{http.StatusInternalServerError, msgInternal}
	}
	return m
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	m := mapError(err)
	if m.status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, m.status, errorResponse{Error: m.message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("failed to write response", "error", err)
	}
}
