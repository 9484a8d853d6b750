package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	companyDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/company"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/core/events"
)

type CompanyLookup interface {
	Get(ctx context.Context, id int64) (*companyDatamodel.Company, error)
}

type EmployeeLookup interface {
	Get(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error)
}

// Subscriber turns domain events into emails. Handlers run on the async bus,
// so a returned error is only logged by the bus.
type Subscriber struct {
	gate      Gate
	companies CompanyLookup
	employees EmployeeLookup
	fallback  string
	logger    *slog.Logger
}

func NewSubscriber(gate Gate, companies CompanyLookup, employees EmployeeLookup, lowBalanceFallback string, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		gate:      gate,
		companies: companies,
		employees: employees,
		fallback:  lowBalanceFallback,
		logger:    logger,
	}
}

func (s *Subscriber) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeWalletLowBalance, s.HandleLowBalance)
	bus.Subscribe(events.EventTypePayrollDisbursed, s.HandlePayrollDisbursed)
	bus.Subscribe(events.EventTypePayslipPaid, s.HandlePayslipPaid)
	bus.Subscribe(events.EventTypeRemittanceProcessed, s.HandleRemittanceProcessed)
}

type lowBalanceData struct {
	CompanyName    string
	PayrollID      int64
	CurrentBalance string
	RequiredAmount string
	Shortfall      string
}

func (s *Subscriber) HandleLowBalance(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.LowBalanceEvent)
	if !ok {
		return unexpected(event)
	}

	name, recipient := s.company(ctx, e.CompanyID)
	if recipient == "" {
		recipient = s.fallback
	}

	return s.gate.Send(ctx, TemplateLowBalance, recipient, "Low wallet balance", lowBalanceData{
		CompanyName:    name,
		PayrollID:      e.PayrollID,
		CurrentBalance: money(e.CurrentBalance),
		RequiredAmount: money(e.RequiredAmount),
		Shortfall:      money(e.RequiredAmount.Sub(e.CurrentBalance)),
	})
}

type payrollOutcomeData struct {
	CompanyName string
	PayrollName string
	Status      string
	Successful  int
	Failed      int
}

func (s *Subscriber) HandlePayrollDisbursed(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PayrollDisbursedEvent)
	if !ok {
		return unexpected(event)
	}

	name, recipient := s.company(ctx, e.CompanyID)
	subject := fmt.Sprintf("Payroll %s: %s", e.PayrollName, e.Status)
	return s.gate.Send(ctx, TemplatePayrollOutcome, recipient, subject, payrollOutcomeData{
		CompanyName: name,
		PayrollName: e.PayrollName,
		Status:      e.Status,
		Successful:  e.Successful,
		Failed:      e.Failed,
	})
}

type payslipPaidData struct {
	EmployeeName string
	PayrollName  string
	NetPay       string
	Reference    string
}

func (s *Subscriber) HandlePayslipPaid(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PayslipPaidEvent)
	if !ok {
		return unexpected(event)
	}

	emp, err := s.employees.Get(ctx, e.CompanyID, e.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to load employee %d: %w", e.EmployeeID, err)
	}

	return s.gate.Send(ctx, TemplatePayslipPaid, emp.Email, "Your salary has been paid", payslipPaidData{
		EmployeeName: e.EmployeeName,
		PayrollName:  fmt.Sprintf("payroll #%d", e.PayrollID),
		NetPay:       money(e.NetPay),
		Reference:    e.PaymentReference,
	})
}

type remittanceOutcomeData struct {
	CompanyName string
	Month       string
	Status      string
	TotalAmount string
	Processed   int
	Failed      int
}

func (s *Subscriber) HandleRemittanceProcessed(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RemittanceProcessedEvent)
	if !ok {
		return unexpected(event)
	}

	name, recipient := s.company(ctx, e.CompanyID)
	subject := fmt.Sprintf("PAYE remittance %s: %s", e.Month, e.Status)
	return s.gate.Send(ctx, TemplateRemittanceOutcome, recipient, subject, remittanceOutcomeData{
		CompanyName: name,
		Month:       e.Month,
		Status:      e.Status,
		TotalAmount: money(e.TotalAmount),
		Processed:   e.Processed,
		Failed:      e.Failed,
	})
}

func (s *Subscriber) company(ctx context.Context, id int64) (string, string) {
	c, err := s.companies.Get(ctx, id)
	if err != nil {
		s.logger.Warn("company lookup failed for notification", "company_id", id, "error", err)
		return "", ""
	}
	return c.Name, c.Email
}

func money(d decimal.Decimal) string {
	return "NGN " + d.StringFixed(2)
}

func unexpected(event events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", event, event.EventType())
}
