package rest

import (
	"log/slog"
	"net/http"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/application/usecase"
)

// LoanUseCases groups the operations served by LoanHandler.
type LoanUseCases struct {
	Register      usecase.Executor[dto.RegisterCustomerRequest, dto.CustomerResponse]
	Eligibility   usecase.Executor[dto.EligibilityRequest, dto.EligibilityResponse]
	CreateLoan    usecase.Executor[dto.CreateLoanRequest, dto.CreateLoanResponse]
	ViewLoan      usecase.Executor[dto.ViewLoanRequest, dto.LoanDetailResponse]
	CustomerLoans usecase.Executor[dto.ViewCustomerLoansRequest, []dto.CustomerLoanItem]
}

// LoanHandler serves customer registration, eligibility and loan endpoints.
type LoanHandler struct {
	uc     LoanUseCases
	logger *slog.Logger
}

// NewLoanHandler creates the customer and loan HTTP handler.
func NewLoanHandler(uc LoanUseCases, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, logger: logger}
}

// RegisterRoutes attaches the public API routes to the given mux.
func (h *LoanHandler) RegisterRoutes(mux *http.ServeMux) {
	handleBoth(mux, "POST", "/register", http.HandlerFunc(h.register))
	handleBoth(mux, "POST", "/check-eligibility", http.HandlerFunc(h.checkEligibility))
	handleBoth(mux, "POST", "/create-loan", http.HandlerFunc(h.createLoan))
	mux.HandleFunc("GET /view-loan/{loan_id}", h.viewLoan)
	mux.HandleFunc("GET /view-loans/{customer_id}", h.viewCustomerLoans)
}

func (h *LoanHandler) register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeBadRequest(w, err)
		return
	}

	resp, err := h.uc.Register.Execute(r.Context(), payload.toRequest())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *LoanHandler) checkEligibility(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLoanTerms(w, r)
	if !ok {
		return
	}

	resp, err := h.uc.Eligibility.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LoanHandler) createLoan(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLoanTerms(w, r)
	if !ok {
		return
	}

	resp, err := h.uc.CreateLoan.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	code := http.StatusOK
	if resp.LoanApproved {
		code = http.StatusCreated
	}
	writeJSON(w, code, resp)
}

func (h *LoanHandler) viewLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "loan_id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	resp, err := h.uc.ViewLoan.Execute(r.Context(), dto.ViewLoanRequest{LoanID: id})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LoanHandler) viewCustomerLoans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "customer_id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	resp, err := h.uc.CustomerLoans.Execute(r.Context(), dto.ViewCustomerLoansRequest{CustomerID: id})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LoanHandler) decodeLoanTerms(w http.ResponseWriter, r *http.Request) (dto.EligibilityRequest, bool) {
	var payload loanTermsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeBadRequest(w, err)
		return dto.EligibilityRequest{}, false
	}
	req, err := payload.toRequest()
	if err != nil {
		writeBadRequest(w, err)
		return dto.EligibilityRequest{}, false
	}
	return req, true
}

// handleBoth registers path with and without a trailing slash so clients of
// either spelling are served without a redirect.
func handleBoth(mux *http.ServeMux, method, path string, h http.Handler) {
	mux.Handle(method+" "+path, h)
	mux.Handle(method+" "+path+"/{$}", h)
}
