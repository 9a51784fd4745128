package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
)

const (
	notFoundMessage      = "Resource not found"
	internalErrorMessage = "Internal server error"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode json response", slog.Any("error", err))
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.Debug("write response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure answers a failed write with 500. Schema violations carry
// their details so callers can see which fields were rejected.
func writeFailure(w http.ResponseWriter, message string, err error) {
	resp := errorResponse{Error: message}
	var violation *domain.ErrSchemaViolation
	if errors.As(err, &violation) {
		resp.Details = violation.Errors
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// notFound answers every request that matches no route.
func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, notFoundMessage)
}

// fail is the last-resort responder for errors a handler does not classify.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, r.Method+" "+r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, internalErrorMessage)
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}
