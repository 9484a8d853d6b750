package compensation_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/compensation"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
)

type mockRuleRepository struct {
	rules  map[int64]*compensationDatamodel.Rule
	nextID int64
	appID  int64
}

func newMockRuleRepository() *mockRuleRepository {
	return &mockRuleRepository{rules: make(map[int64]*compensationDatamodel.Rule), nextID: 1, appID: 1}
}

func (m *mockRuleRepository) Create(ctx context.Context, rule *compensationDatamodel.Rule) error {
	rule.ID = m.nextID
	m.nextID++
	cp := *rule
	m.rules[rule.ID] = &cp
	return nil
}

func (m *mockRuleRepository) GetByID(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, id int64) (*compensationDatamodel.Rule, error) {
	r, ok := m.rules[id]
	if !ok || r.CompanyID != companyID || r.Kind != kind {
		return nil, compensation.ErrRuleNotFound
	}
	cp := *r
	cp.Applications = append([]compensationDatamodel.Application(nil), r.Applications...)
	return &cp, nil
}

func (m *mockRuleRepository) List(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, filter compensation.ListFilter) ([]compensationDatamodel.Rule, error) {
	var out []compensationDatamodel.Rule
	for _, r := range m.rules {
		if r.CompanyID == companyID && r.Kind == kind && (filter.Status == "" || r.Status == filter.Status) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRuleRepository) Update(ctx context.Context, rule *compensationDatamodel.Rule) error {
	stored := m.rules[rule.ID]
	apps := stored.Applications
	cp := *rule
	cp.Applications = apps
	m.rules[rule.ID] = &cp
	return nil
}

func (m *mockRuleRepository) AddApplication(ctx context.Context, a *compensationDatamodel.Application) error {
	a.ID = m.appID
	m.appID++
	m.rules[a.RuleID].Applications = append(m.rules[a.RuleID].Applications, *a)
	return nil
}

func (m *mockRuleRepository) UpdateApplication(ctx context.Context, a *compensationDatamodel.Application) error {
	apps := m.rules[a.RuleID].Applications
	for i := range apps {
		if apps[i].ID == a.ID {
			apps[i] = *a
		}
	}
	return nil
}

type mockDirectory struct {
	employees   map[int64]int64
	departments map[int64]int64
}

func (d *mockDirectory) EmployeeExists(ctx context.Context, companyID, id int64) (bool, error) {
	c, ok := d.employees[id]
	return ok && c == companyID, nil
}

func (d *mockDirectory) DepartmentExists(ctx context.Context, companyID, id int64) (bool, error) {
	c, ok := d.departments[id]
	return ok && c == companyID, nil
}

var _ = Describe("Service", func() {
	var (
		repo    *mockRuleRepository
		service *compensation.Service
		ctx     context.Context
		now     time.Time
	)

	const companyID = int64(1)

	BeforeEach(func() {
		repo = newMockRuleRepository()
		dir := &mockDirectory{
			employees:   map[int64]int64{10: companyID, 11: 2},
			departments: map[int64]int64{20: companyID},
		}
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		now = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		service = compensation.NewService(repo, dir, lg).WithClock(func() time.Time { return now })
		ctx = context.Background()
	})

	createRule := func(kind compensationDatamodel.Kind) *compensationDatamodel.Rule {
		r, err := service.Create(ctx, companyID, kind, compensation.CreateRuleDTO{
			Name:   "Health insurance",
			Amount: decimal.NewFromInt(5),
			Type:   "Percentage",
		})
		Expect(err).NotTo(HaveOccurred())
		return r
	}

	Describe("Create", func() {
		It("normalises type and defaults frequency", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			Expect(r.Type).To(Equal(compensationDatamodel.AmountPercentage))
			Expect(r.Frequency).To(Equal(compensationDatamodel.FrequencyOneTime))
			Expect(r.Status).To(Equal(compensationDatamodel.StatusActive))
		})

		It("rejects negative amounts", func() {
			_, err := service.Create(ctx, companyID, compensationDatamodel.KindExtraEarning, compensation.CreateRuleDTO{
				Name: "Bonus", Amount: decimal.NewFromInt(-1),
			})
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeValidation))
		})

		It("rejects percentages above 100", func() {
			_, err := service.Create(ctx, companyID, compensationDatamodel.KindDeduction, compensation.CreateRuleDTO{
				Name: "All of it", Amount: decimal.NewFromInt(150), Type: "percentage",
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Apply", func() {
		It("attaches to an employee of the company with mixed-case target type", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			updated, err := service.Apply(ctx, companyID, compensationDatamodel.KindDeduction, r.ID, compensation.ApplyRuleDTO{
				TargetType: "Employee",
				TargetID:   10,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Applications).To(HaveLen(1))
			Expect(updated.Applications[0].TargetType).To(Equal(compensationDatamodel.TargetEmployee))
			Expect(updated.Applications[0].StartDate).To(Equal(now))
		})

		It("attaches to a department", func() {
			r := createRule(compensationDatamodel.KindExtraEarning)
			_, err := service.Apply(ctx, companyID, compensationDatamodel.KindExtraEarning, r.ID, compensation.ApplyRuleDTO{
				TargetType: "department",
				TargetID:   20,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a target from another company", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			_, err := service.Apply(ctx, companyID, compensationDatamodel.KindDeduction, r.ID, compensation.ApplyRuleDTO{
				TargetType: "employee",
				TargetID:   11,
			})
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(404))
			Expect(appErr.Code).To(Equal(errors.ErrCodeTargetNotFound))
		})

		It("rejects unknown target types", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			_, err := service.Apply(ctx, companyID, compensationDatamodel.KindDeduction, r.ID, compensation.ApplyRuleDTO{
				TargetType: "company",
				TargetID:   1,
			})
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeValidation))
		})

		It("does not find a rule of the other kind", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			_, err := service.Apply(ctx, companyID, compensationDatamodel.KindExtraEarning, r.ID, compensation.ApplyRuleDTO{
				TargetType: "employee",
				TargetID:   10,
			})
			Expect(err).To(MatchError(compensation.ErrRuleNotFound))
		})
	})

	Describe("RemoveApplication", func() {
		It("deactivates the application and closes it now", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			applied, err := service.Apply(ctx, companyID, compensationDatamodel.KindDeduction, r.ID, compensation.ApplyRuleDTO{TargetType: "employee", TargetID: 10})
			Expect(err).NotTo(HaveOccurred())

			removed, err := service.RemoveApplication(ctx, companyID, compensationDatamodel.KindDeduction, r.ID, applied.Applications[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed.Applications[0].Status).To(Equal(compensationDatamodel.StatusInactive))
			Expect(*removed.Applications[0].EndDate).To(Equal(now))
		})

		It("reports a missing application", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			_, err := service.RemoveApplication(ctx, companyID, compensationDatamodel.KindDeduction, r.ID, 999)
			Expect(err).To(MatchError(compensation.ErrApplicationNotFound))
		})
	})

	Describe("Update and Delete", func() {
		It("updates selected fields only", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			name := "Medical"
			updated, err := service.Update(ctx, companyID, compensationDatamodel.KindDeduction, r.ID, compensation.UpdateRuleDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Medical"))
			Expect(updated.Amount.String()).To(Equal("5"))
		})

		It("soft deletes and drops the rule from the active set", func() {
			r := createRule(compensationDatamodel.KindDeduction)
			deleted, err := service.Delete(ctx, companyID, compensationDatamodel.KindDeduction, r.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted.Status).To(Equal(compensationDatamodel.StatusInactive))

			active, err := service.Active(ctx, companyID, compensationDatamodel.KindDeduction)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeEmpty())
		})
	})
})
