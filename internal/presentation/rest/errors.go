package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibbank/origination/internal/application/usecase"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps use case errors onto status codes. Anything unrecognised is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, port.ErrCustomerNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Customer not found"})
	case errors.Is(err, port.ErrLoanNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Loan not found"})
	case errors.Is(err, port.ErrImportJobNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Import job not found"})
	case errors.Is(err, model.ErrValidation), errors.Is(err, usecase.ErrImportFileMissing):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}
