package disbursement

import (
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
)

type Failure struct {
	PayslipID  int64  `json:"payslip_id"`
	EmployeeID int64  `json:"employee_id"`
	Error      string `json:"error"`
}

// Result summarises one processing run or one payslip retry.
type Result struct {
	PayrollID  int64                   `json:"payroll_id"`
	Status     payrollDatamodel.Status `json:"status"`
	Successful int                     `json:"successful"`
	Failed     int                     `json:"failed"`
	Failures   []Failure               `json:"failures"`
}

func (r *Result) fail(slip *payrollDatamodel.Payslip, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{PayslipID: slip.ID, EmployeeID: slip.EmployeeID, Error: msg})
}
