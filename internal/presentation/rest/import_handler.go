package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/application/usecase"
	"github.com/bibbank/origination/pkg/auth"
)

// DataStatusReporter summarises stored customers and loans.
type DataStatusReporter interface {
	Execute(ctx context.Context) (dto.DataStatusResponse, error)
}

// ImportUseCases groups the operations served by ImportHandler.
type ImportUseCases struct {
	Schedule   usecase.Executor[dto.ScheduleImportRequest, dto.ImportJobResponse]
	GetJob     usecase.Executor[dto.GetImportJobRequest, dto.ImportJobResponse]
	DataStatus DataStatusReporter
}

// ImportHandler serves the administrative import endpoints. Every route
// requires a bearer token.
type ImportHandler struct {
	uc       ImportUseCases
	jwt      *auth.JWTService
	defaults dto.ScheduleImportRequest
	logger   *slog.Logger
}

// NewImportHandler creates the import HTTP handler. defaults supplies the
// workbook paths for requests that omit them.
func NewImportHandler(
	uc ImportUseCases,
	jwtService *auth.JWTService,
	defaults dto.ScheduleImportRequest,
	logger *slog.Logger,
) *ImportHandler {
	return &ImportHandler{uc: uc, jwt: jwtService, defaults: defaults, logger: logger}
}

// RegisterRoutes attaches the import routes to the given mux.
func (h *ImportHandler) RegisterRoutes(mux *http.ServeMux) {
	writers := auth.HTTPMiddleware(h.jwt, auth.RoleAdmin, auth.RoleOperator)
	readers := auth.HTTPMiddleware(h.jwt, auth.RoleAdmin, auth.RoleOperator, auth.RoleAuditor)

	handleBoth(mux, "POST", "/ingest", writers(http.HandlerFunc(h.schedule)))
	mux.Handle("GET /ingest/{job_id}", readers(http.HandlerFunc(h.getJob)))
	handleBoth(mux, "GET", "/data-status", readers(http.HandlerFunc(h.dataStatus)))
}

func (h *ImportHandler) schedule(w http.ResponseWriter, r *http.Request) {
	var req dto.ScheduleImportRequest
	// An empty body schedules the default import.
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	if req.CustomerFile == "" {
		req.CustomerFile = h.defaults.CustomerFile
	}
	if req.LoanFile == "" {
		req.LoanFile = h.defaults.LoanFile
	}

	resp, err := h.uc.Schedule.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var subject string
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		subject = claims.UserID.String()
	}
	h.logger.InfoContext(r.Context(), "import scheduled",
		"job_id", resp.JobID,
		"kind", resp.Kind,
		"requested_by", subject,
	)
	writeJSON(w, http.StatusAccepted, resp)
}

func (h *ImportHandler) getJob(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.GetJob.Execute(r.Context(), dto.GetImportJobRequest{JobID: r.PathValue("job_id")})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ImportHandler) dataStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.DataStatus.Execute(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
