package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/core/common/validation"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

type ScheduleDTO struct {
	Name        string                     `json:"name"`
	Frequency   payrollDatamodel.Frequency `json:"frequency"`
	PeriodStart time.Time                  `json:"period_start"`
	PeriodEnd   time.Time                  `json:"period_end"`
	IsRecurring bool                       `json:"is_recurring"`
}

func (d *ScheduleDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Frequency = payrollDatamodel.Frequency(strings.ToLower(strings.TrimSpace(string(d.Frequency))))
	if d.Frequency == "" {
		d.Frequency = payrollDatamodel.FrequencyMonthly
	}
}

func (d ScheduleDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(150)
	v.Field("frequency", string(d.Frequency)).OneOf(
		string(payrollDatamodel.FrequencyWeekly),
		string(payrollDatamodel.FrequencyBiWeekly),
		string(payrollDatamodel.FrequencyMonthly))
	v.Field("period_start", d.PeriodStart).Required()
	v.Field("period_end", d.PeriodEnd).Required().NotBefore(d.PeriodStart, "period_start")
	return v.Validate()
}

type PeriodDTO struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// PayslipUpdate is merged into the payslip of the matching employee.
type PayslipUpdate struct {
	EmployeeID int64                       `json:"employee_id"`
	BaseSalary *decimal.Decimal            `json:"base_salary,omitempty"`
	Allowances *payrollDatamodel.LineItems `json:"allowances,omitempty"`
	Deductions *payrollDatamodel.LineItems `json:"deductions,omitempty"`
}

type UpdatePayrollDTO struct {
	Name     *string         `json:"name,omitempty"`
	Status   *string         `json:"status,omitempty"`
	Period   *PeriodDTO      `json:"period,omitempty"`
	Payslips []PayslipUpdate `json:"payslips,omitempty"`
}

func (d UpdatePayrollDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(150)
	}
	for _, u := range d.Payslips {
		v.Field("payslips.employee_id", u.EmployeeID).Required()
		if u.BaseSalary != nil {
			v.Field("payslips.base_salary", u.BaseSalary).NonNegative()
		}
	}
	return v.Validate()
}

type ListFilter struct {
	Status    string
	Frequency string
	From      *time.Time
	To        *time.Time
	SortBy    string
	SortOrder string
	transport.Page
}

var sortColumns = map[string]string{
	"period.start_date": "period_start_date",
	"start_date":        "period_start_date",
	"created_at":        "created_at",
	"name":              "name",
	"status":            "status",
}

// OrderClause maps the requested sort onto a whitelisted column.
func (f ListFilter) OrderClause() string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "period_start_date"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

type Pagination struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

func NewPagination(total int64, page transport.Page) Pagination {
	pages := 0
	if page.Limit > 0 {
		pages = int((total + int64(page.Limit) - 1) / int64(page.Limit))
	}
	return Pagination{
		Total:       total,
		Page:        page.Page,
		Limit:       page.Limit,
		TotalPages:  pages,
		HasNextPage: page.Page < pages,
		HasPrevPage: page.Page > 1,
	}
}

type ListResult struct {
	Payrolls   []payrollDatamodel.Payroll `json:"payrolls"`
	Pagination Pagination                 `json:"pagination"`
}

// StatusTotal is one row of the status summary report.
type StatusTotal struct {
	Status string          `db:"status" json:"-"`
	Count  int64           `db:"count" json:"count"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

type UpcomingRun struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Status    string          `db:"status" json:"status"`
	Frequency string          `db:"frequency" json:"frequency"`
	NextRun   time.Time       `db:"next_run" json:"next_run"`
	TotalNet  decimal.Decimal `db:"total_net" json:"total_net"`
}

type SummaryReport struct {
	Summary  map[string]StatusTotal `json:"summary"`
	Upcoming []UpcomingRun          `json:"upcoming_payrolls"`
}

type RemoveEmployeeResult struct {
	PayrollID  int64                    `json:"payroll_id"`
	EmployeeID int64                    `json:"employee_id"`
	Payroll    *payrollDatamodel.Payroll `json:"payroll"`
}
