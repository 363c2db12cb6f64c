package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func mapErrorToHTTPStatus(err error) int {
	switch domain.KindLabel(err) {
	case "invalid_input":
		return http.StatusBadRequest
	case "unauthorized":
		return http.StatusUnauthorized
	case "snapshot_not_found":
		return http.StatusNotFound
	case "timeout":
		return http.StatusGatewayTimeout
	case "embedding_service_error", "retrieval_error", "agent_parse_error", "agent_service_error":
		return http.StatusBadGateway
	case "temporary_failure":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "invalid_input", Details: "request body too large"})
		return
	}

	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"kind", domain.KindLabel(err),
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: domain.KindLabel(err), Details: err.Error()})
}
