package payroll

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	companyDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/company"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
)

type CompanyLookup interface {
	Get(ctx context.Context, id int64) (*companyDatamodel.Company, error)
}

type EmployeeLookup interface {
	Get(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error)
}

// PayslipDocument gathers what a rendered payslip shows. Employee may be nil
// when the employee has since been deleted.
type PayslipDocument struct {
	CompanyName string
	Payroll     *payrollDatamodel.Payroll
	Payslip     *payrollDatamodel.Payslip
	Employee    *employeeDatamodel.Employee
}

// RenderPayslipPDF writes an A4 payslip. Amounts are printed with an NGN
// prefix because the core PDF fonts have no naira glyph.
func RenderPayslipPDF(w io.Writer, doc PayslipDocument) error {
	slip := doc.Payslip
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %d", slip.ID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, doc.CompanyName)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, "Payslip: "+doc.Payroll.Name)
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s",
		doc.Payroll.Period.StartDate.Format("2006-01-02"),
		doc.Payroll.Period.EndDate.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.Cell(0, 8, "Employee: "+slip.EmployeeName)
	pdf.Ln(7)
	if e := doc.Employee; e != nil {
		if e.Position != "" {
			pdf.Cell(0, 8, "Position: "+e.Position)
			pdf.Ln(7)
		}
		if e.Bank.AccountNumber != "" {
			pdf.Cell(0, 8, fmt.Sprintf("Bank: %s %s", e.Bank.BankName, maskAccount(e.Bank.AccountNumber)))
			pdf.Ln(7)
		}
	}
	pdf.Ln(4)

	row := func(label, amount string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(120, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, amount, "", 1, "R", false, 0, "")
	}

	row("Base salary", money(slip.BaseSalary.String()), false)
	section(pdf, "Allowances")
	for _, a := range slip.Allowances {
		row(lineLabel(a), money(a.Amount.String()), false)
	}
	row("Gross pay", money(slip.GrossPay.String()), true)

	section(pdf, "Deductions")
	for _, d := range slip.Deductions {
		row(lineLabel(d), money(d.Amount.String()), false)
	}
	row("Total deductions", money(slip.Deductions.Sum().String()), true)
	pdf.Ln(3)
	row("Net pay", money(slip.NetPay.String()), true)

	if slip.PaymentReference != nil {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, "Payment reference: "+*slip.PaymentReference)
	}

	return pdf.Output(w)
}

// PayslipPDF renders a payslip and, when an archive directory is set, keeps
// a copy named after the payslip id.
func (s *Service) PayslipPDF(ctx context.Context, companyID, payrollID, payslipID int64) ([]byte, error) {
	p, err := s.repo.GetByID(ctx, companyID, payrollID)
	if err != nil {
		return nil, err
	}
	slip := p.PayslipByID(payslipID)
	if slip == nil {
		return nil, ErrPayslipNotFound
	}

	doc := PayslipDocument{Payroll: p, Payslip: slip}
	if s.companies != nil {
		if c, err := s.companies.Get(ctx, companyID); err == nil {
			doc.CompanyName = c.Name
		}
	}
	if s.employees != nil {
		if e, err := s.employees.Get(ctx, companyID, slip.EmployeeID); err == nil {
			doc.Employee = e
		}
	}

	var buf bytes.Buffer
	if err := RenderPayslipPDF(&buf, doc); err != nil {
		s.logger.Error("failed to render payslip", "error", err, "payslip_id", payslipID)
		return nil, err
	}

	if s.archiveDir != "" {
		if err := os.MkdirAll(s.archiveDir, 0o755); err == nil {
			path := filepath.Join(s.archiveDir, fmt.Sprintf("payslip-%d.pdf", slip.ID))
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				s.logger.Warn("failed to archive payslip", "error", err, "path", path)
			}
		}
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func lineLabel(item payrollDatamodel.LineItem) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Type
}

func money(amount string) string {
	return "NGN " + amount
}

func maskAccount(n string) string {
	if len(n) <= 4 {
		return n
	}
	return "******" + n[len(n)-4:]
}
