package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/application/dto"
)

const maxBodyBytes = 1 << 20

var errMissingFields = errors.New("Missing required fields") //nolint:staticcheck,revive // client-facing message

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// phoneNumber accepts both JSON strings and JSON numbers, since phone numbers
// are frequently sent unquoted.
type phoneNumber string

func (p *phoneNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = phoneNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("phone_number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*p = phoneNumber(strconv.FormatInt(i, 10))
		return nil
	}
	*p = phoneNumber(n.String())
	return nil
}

type registerPayload struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	PhoneNumber   phoneNumber     `json:"phone_number"`
}

func (p registerPayload) toRequest() dto.RegisterCustomerRequest {
	return dto.RegisterCustomerRequest{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Age:           p.Age,
		MonthlyIncome: p.MonthlyIncome,
		PhoneNumber:   string(p.PhoneNumber),
	}
}

// loanTermsPayload is shared by the eligibility and create-loan endpoints.
// Pointers distinguish absent fields. A zero ID, amount or tenure counts as
// missing too; a zero interest rate is a valid request.
type loanTermsPayload struct {
	CustomerID   *int64           `json:"customer_id"`
	LoanAmount   *decimal.Decimal `json:"loan_amount"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
	Tenure       *int             `json:"tenure"`
}

func (p loanTermsPayload) toRequest() (dto.EligibilityRequest, error) {
	if p.CustomerID == nil || *p.CustomerID == 0 ||
		p.LoanAmount == nil || p.LoanAmount.IsZero() ||
		p.InterestRate == nil ||
		p.Tenure == nil || *p.Tenure == 0 {
		return dto.EligibilityRequest{}, errMissingFields
	}
	return dto.EligibilityRequest{
		CustomerID:   *p.CustomerID,
		LoanAmount:   *p.LoanAmount,
		InterestRate: *p.InterestRate,
		Tenure:       *p.Tenure,
	}, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
