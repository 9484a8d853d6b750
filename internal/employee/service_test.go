package employee_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/employee"
)

type mockEmployeeRepository struct {
	employees map[int64]*employeeDatamodel.Employee
	nextID    int64
	deleted   []int64
}

func newMockEmployeeRepository() *mockEmployeeRepository {
	return &mockEmployeeRepository{employees: make(map[int64]*employeeDatamodel.Employee), nextID: 1}
}

func (m *mockEmployeeRepository) Create(ctx context.Context, e *employeeDatamodel.Employee) error {
	e.ID = m.nextID
	m.nextID++
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *mockEmployeeRepository) GetByID(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error) {
	e, ok := m.employees[id]
	if !ok || e.CompanyID != companyID {
		return nil, employee.ErrEmployeeNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEmployeeRepository) GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	for _, e := range m.employees {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

func (m *mockEmployeeRepository) List(ctx context.Context, companyID int64, filter employee.ListFilter) ([]employeeDatamodel.Employee, int64, error) {
	var out []employeeDatamodel.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID && (filter.Status == "" || e.Status == filter.Status) {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockEmployeeRepository) ListByStatus(ctx context.Context, companyID int64, status string) ([]employeeDatamodel.Employee, error) {
	items, _, err := m.List(ctx, companyID, employee.ListFilter{Status: status})
	return items, err
}

func (m *mockEmployeeRepository) Update(ctx context.Context, e *employeeDatamodel.Employee) error {
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *mockEmployeeRepository) Delete(ctx context.Context, companyID, id int64) error {
	delete(m.employees, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockDepartments struct {
	known map[int64]bool
}

func (m *mockDepartments) Exists(ctx context.Context, companyID, departmentID int64) (bool, error) {
	return m.known[departmentID], nil
}

type mockVerifier struct {
	name string
	err  error
}

func (m *mockVerifier) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	return m.name, m.err
}

type mockExciser struct {
	affected int
	err      error
	calls    int
}

func (m *mockExciser) RemoveEmployeeFromMutable(ctx context.Context, companyID, employeeID int64) (int, error) {
	m.calls++
	return m.affected, m.err
}

// passthroughTx runs fn directly and records whether it failed.
type passthroughTx struct {
	failed bool
}

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	p.failed = err != nil
	return err
}

var _ = Describe("Employee Service", func() {
	var (
		repo    *mockEmployeeRepository
		depts   *mockDepartments
		tx      *passthroughTx
		service *employee.Service
		ctx     context.Context
	)

	validDTO := func(email string) employee.CreateEmployeeDTO {
		return employee.CreateEmployeeDTO{
			Name:   "Ada Obi",
			Email:  email,
			Salary: decimal.NewFromInt(150000),
			BankDetails: employeeDatamodel.BankDetails{
				AccountNumber: "0123456789",
				AccountName:   "Ada Obi",
				BankCode:      "058",
			},
		}
	}

	BeforeEach(func() {
		repo = newMockEmployeeRepository()
		depts = &mockDepartments{known: map[int64]bool{7: true}}
		tx = &passthroughTx{}
		lg := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = employee.NewService(repo, depts, tx, lg)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("stores a present, payroll-active employee with a normalised email", func() {
			e, err := service.Create(ctx, 1, validDTO("  Ada@Example.COM "))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Email).To(Equal("ada@example.com"))
			Expect(e.Status).To(Equal(employeeDatamodel.StatusPresent))
			Expect(e.PayrollStatus).To(Equal(employeeDatamodel.PayrollStatusActive))
		})

		It("rejects a duplicate email", func() {
			_, err := service.Create(ctx, 1, validDTO("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, 2, validDTO("ada@example.com"))
			Expect(err).To(MatchError(employee.ErrDuplicateEmail))
		})

		It("rejects a negative salary", func() {
			dto := validDTO("ada@example.com")
			dto.Salary = decimal.NewFromInt(-1)

			_, err := service.Create(ctx, 1, dto)
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeValidation))
		})

		It("rejects an unknown department", func() {
			dto := validDTO("ada@example.com")
			missing := int64(99)
			dto.DepartmentID = &missing

			_, err := service.Create(ctx, 1, dto)
			Expect(err).To(MatchError(employee.ErrDepartmentNotFound))
		})

		Context("with account verification", func() {
			It("replaces the account name with the resolved one", func() {
				service.WithAccountVerifier(&mockVerifier{name: "ADA C. OBI"})
				dto := validDTO("ada@example.com")
				dto.VerifyAccount = true

				e, err := service.Create(ctx, 1, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(e.Bank.AccountName).To(Equal("ADA C. OBI"))
			})

			It("rejects the employee when the account cannot be resolved", func() {
				service.WithAccountVerifier(&mockVerifier{err: fmt.Errorf("account not found")})
				dto := validDTO("ada@example.com")
				dto.VerifyAccount = true

				_, err := service.Create(ctx, 1, dto)
				Expect(err).To(HaveOccurred())
				Expect(repo.employees).To(BeEmpty())
			})
		})
	})

	Describe("Update", func() {
		It("applies only the supplied fields", func() {
			e, err := service.Create(ctx, 1, validDTO("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			salary := decimal.NewFromInt(200000)
			status := "Absent"
			updated, err := service.Update(ctx, 1, e.ID, employee.UpdateEmployeeDTO{Salary: &salary, Status: &status})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Salary.String()).To(Equal("200000"))
			Expect(updated.Status).To(Equal(employeeDatamodel.StatusAbsent))
			Expect(updated.Name).To(Equal("Ada Obi"))
		})

		It("does not let another company's caller see the employee", func() {
			e, err := service.Create(ctx, 1, validDTO("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, 2, e.ID, employee.UpdateEmployeeDTO{})
			Expect(err).To(MatchError(employee.ErrEmployeeNotFound))
		})
	})

	Describe("Delete", func() {
		It("excises the employee from editable payrolls before deleting", func() {
			exciser := &mockExciser{affected: 2}
			service.WithPayrollExciser(exciser)
			e, err := service.Create(ctx, 1, validDTO("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			result, err := service.Delete(ctx, 1, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.PayrollsAffected).To(Equal(2))
			Expect(exciser.calls).To(Equal(1))
			Expect(repo.deleted).To(ConsistOf(e.ID))
		})

		It("keeps the employee when the payroll cascade fails", func() {
			exciser := &mockExciser{err: fmt.Errorf("db down")}
			service.WithPayrollExciser(exciser)
			e, err := service.Create(ctx, 1, validDTO("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Delete(ctx, 1, e.ID)
			Expect(err).To(HaveOccurred())
			Expect(tx.failed).To(BeTrue())
			Expect(repo.deleted).To(BeEmpty())
		})

		It("returns not found for an unknown employee", func() {
			_, err := service.Delete(ctx, 1, 42)
			Expect(err).To(MatchError(employee.ErrEmployeeNotFound))
		})
	})

	Describe("target lookups", func() {
		It("reports employee existence per company", func() {
			e, err := service.Create(ctx, 1, validDTO("ada@example.com"))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.EmployeeExists(ctx, 1, e.ID)).To(BeTrue())
			Expect(service.EmployeeExists(ctx, 2, e.ID)).To(BeFalse())
			Expect(service.DepartmentExists(ctx, 1, 7)).To(BeTrue())
		})
	})
})
