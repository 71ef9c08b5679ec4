package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/xavierca1/leadflow/internal/usecase"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

var statusByCode = map[string]int{
	usecase.CodeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	usecase.CodePayloadTooLarge:      http.StatusRequestEntityTooLarge,
	usecase.CodeExtractionFailed:     http.StatusUnprocessableEntity,
	usecase.CodeNoTextFound:          http.StatusUnprocessableEntity,
	usecase.CodeNoLeadsFound:         http.StatusUnprocessableEntity,
	usecase.CodeDuplicateLead:        http.StatusConflict,
	usecase.CodeNotFound:             http.StatusNotFound,
	usecase.CodeValidation:           http.StatusBadRequest,
	usecase.CodeEmailNotConfigured:   http.StatusServiceUnavailable,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeError maps use case errors to a status. Technical errors hide their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ErrorResponse{Error: de.Code, Message: de.Message, Details: de.Details})
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "code", te.Code, "error", err)
		status, ok := statusByCode[te.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, ErrorResponse{Error: te.Code, Message: te.Message})
		return
	}

	slog.ErrorContext(r.Context(), "unexpected error", "path", r.URL.Path, "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
