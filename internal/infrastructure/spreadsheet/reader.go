// Package spreadsheet reads customer and loan workbooks with excelize.
package spreadsheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
)

var _ port.SpreadsheetReader = (*Reader)(nil)

// Column headers as they appear in the workbooks.
const (
	colCustomerID    = "Customer ID"
	colFirstName     = "First Name"
	colLastName      = "Last Name"
	colAge           = "Age"
	colPhoneNumber   = "Phone Number"
	colMonthlySalary = "Monthly Salary"
	colApprovedLimit = "Approved Limit"

	colLoanID         = "Loan ID"
	colLoanAmount     = "Loan Amount"
	colTenure         = "Tenure"
	colInterestRate   = "Interest Rate"
	colMonthlyPayment = "Monthly payment"
	colEMIsPaid       = "EMIs paid on Time"
	colApprovalDate   = "Date of Approval"
	colEndDate        = "End Date"
)

var (
	customerColumns = []string{
		colCustomerID, colFirstName, colLastName, colAge,
		colPhoneNumber, colMonthlySalary, colApprovedLimit,
	}
	loanColumns = []string{
		colCustomerID, colLoanID, colLoanAmount, colTenure, colInterestRate,
		colMonthlyPayment, colEMIsPaid, colApprovalDate, colEndDate,
	}
	dateLayouts = []string{"2006-01-02", "1/2/2006", "2006-01-02 15:04:05", "01-02-06"}
)

// Reader implements port.SpreadsheetReader over the first sheet of a workbook.
type Reader struct {
	now func() time.Time
}

// NewReader creates a Reader stamping rows with the current UTC time.
func NewReader() *Reader {
	return &Reader{now: func() time.Time { return time.Now().UTC() }}
}

// ReadCustomers parses the customer workbook. Imported customers start with zero debt.
func (r *Reader) ReadCustomers(ctx context.Context, path string) ([]model.Customer, error) {
	sheet, err := openSheet(ctx, path, customerColumns)
	if err != nil {
		return nil, err
	}

	now := r.now()
	customers := make([]model.Customer, 0, len(sheet.rows))
	for _, row := range sheet.rows {
		id, err := row.int64(colCustomerID)
		if err != nil {
			return nil, err
		}
		age, err := row.int(colAge)
		if err != nil {
			return nil, err
		}
		income, err := row.decimal(colMonthlySalary)
		if err != nil {
			return nil, err
		}
		limit, err := row.decimal(colApprovedLimit)
		if err != nil {
			return nil, err
		}

		customers = append(customers, model.ReconstructCustomer(
			id,
			row.text(colFirstName),
			row.text(colLastName),
			age,
			phoneText(row.text(colPhoneNumber)),
			income,
			limit,
			decimal.Zero,
			now,
			now,
		))
	}
	return customers, nil
}

// ReadLoans parses the loan workbook. A row whose loan ID is not a positive
// number yields an ID-0 placeholder without parsing its other cells, so the
// ingest drops and counts it instead of failing on them.
func (r *Reader) ReadLoans(ctx context.Context, path string) ([]model.Loan, error) {
	sheet, err := openSheet(ctx, path, loanColumns)
	if err != nil {
		return nil, err
	}

	now := r.now()
	loans := make([]model.Loan, 0, len(sheet.rows))
	for _, row := range sheet.rows {
		loanID, err := row.int64(colLoanID)
		if err != nil || loanID <= 0 {
			loans = append(loans, model.ReconstructLoan(
				0, 0, decimal.Zero, 0, decimal.Zero, decimal.Zero, 0, time.Time{}, time.Time{}, now,
			))
			continue
		}
		customerID, err := row.int64(colCustomerID)
		if err != nil {
			return nil, err
		}
		amount, err := row.decimal(colLoanAmount)
		if err != nil {
			return nil, err
		}
		tenure, err := row.int(colTenure)
		if err != nil {
			return nil, err
		}
		rate, err := row.decimal(colInterestRate)
		if err != nil {
			return nil, err
		}
		payment, err := row.decimal(colMonthlyPayment)
		if err != nil {
			return nil, err
		}
		paid, err := row.int(colEMIsPaid)
		if err != nil {
			return nil, err
		}
		start, err := row.date(colApprovalDate)
		if err != nil {
			return nil, err
		}
		end, err := row.date(colEndDate)
		if err != nil {
			return nil, err
		}

		loans = append(loans, model.ReconstructLoan(
			loanID, customerID, amount, tenure, rate, payment, paid, start, end, now,
		))
	}
	return loans, nil
}

// ---------------------------------------------------------------------------
// Sheet access
// ---------------------------------------------------------------------------

type sheet struct {
	rows []row
}

type row struct {
	number  int // 1-based, as shown in Excel
	cells   []string
	columns map[string]int
}

func openSheet(ctx context.Context, path string, required []string) (sheet, error) {
	if err := ctx.Err(); err != nil {
		return sheet{}, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return sheet{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return sheet{}, fmt.Errorf("workbook %s has no sheets", path)
	}
	raw, err := f.GetRows(names[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return sheet{}, fmt.Errorf("read sheet %s: %w", names[0], err)
	}
	if len(raw) == 0 {
		return sheet{}, fmt.Errorf("sheet %s is empty", names[0])
	}

	columns := make(map[string]int, len(raw[0]))
	for i, header := range raw[0] {
		columns[normalizeHeader(header)] = i
	}
	for _, name := range required {
		if _, ok := columns[normalizeHeader(name)]; !ok {
			return sheet{}, fmt.Errorf("sheet %s: missing column %q", names[0], name)
		}
	}

	s := sheet{rows: make([]row, 0, len(raw)-1)}
	for i, cells := range raw[1:] {
		if blank(cells) {
			continue
		}
		s.rows = append(s.rows, row{number: i + 2, cells: cells, columns: columns})
	}
	return s, nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (r row) text(column string) string {
	i := r.columns[normalizeHeader(column)]
	if i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r row) decimal(column string) (decimal.Decimal, error) {
	v := r.text(column)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("row %d: %s: invalid number %q", r.number, column, v)
	}
	return d, nil
}

func (r row) int64(column string) (int64, error) {
	d, err := r.decimal(column)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("row %d: %s: %s is not a whole number", r.number, column, d)
	}
	return d.IntPart(), nil
}

func (r row) int(column string) (int, error) {
	n, err := r.int64(column)
	return int(n), err
}

// date accepts Excel serial dates and a few common text layouts.
func (r row) date(column string) (time.Time, error) {
	v := r.text(column)
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("row %d: %s: %w", r.number, column, err)
		}
		return truncateToDay(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return truncateToDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("row %d: %s: invalid date %q", r.number, column, v)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// phoneText undoes the float rendering spreadsheets apply to numeric phone cells.
func phoneText(v string) string {
	if d, err := decimal.NewFromString(v); err == nil && d.Equal(d.Truncate(0)) {
		return d.String()
	}
	return v
}
