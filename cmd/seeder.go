package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/compensation"
	companyDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/company"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	walletDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/wallet"
	"github.com/frahmantamala/payroll-engine/internal/department"
	"github.com/frahmantamala/payroll-engine/internal/employee"
	"github.com/frahmantamala/payroll-engine/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a sample company, its users, departments, employees, wallet and compensation rules.`,
	Run: func(cmd *cobra.Command, args []string) {
		deps, err := initializeDependencies()
		if err != nil {
			log.Fatalf("failed to initialize dependencies: %v", err)
		}
		defer deps.Close()

		ctx := context.Background()
		if clearData {
			if err := clearSeedData(deps); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seed(ctx, deps); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		fmt.Println("Seed data loaded successfully")
	},
}

// clearSeedData truncates every table owned by the application. Child tables
// go with their companies through the cascade.
func clearSeedData(deps *Dependencies) error {
	return deps.Gorm.Exec("TRUNCATE TABLE companies RESTART IDENTITY CASCADE").Error
}

type seedEmployee struct {
	name, email, position, department string
	salary                            int64
	accountNumber, bankCode, taxPID   string
}

func seed(ctx context.Context, deps *Dependencies) error {
	company := &companyDatamodel.Company{
		Name:    "Acme Logistics Ltd",
		Email:   "finance@acme.test",
		Phone:   "+2348000000000",
		Address: "12 Marina Road, Lagos",
		Status:  companyDatamodel.StatusActive,
	}
	if err := deps.Gorm.WithContext(ctx).
		Where(companyDatamodel.Company{Email: company.Email}).
		FirstOrCreate(company).Error; err != nil {
		return fmt.Errorf("seed company: %w", err)
	}
	fmt.Println("Seeded company:", company.Name)

	users := []user.CreateUserDTO{
		{Name: "Ada Admin", Email: "admin@acme.test", Password: "password123", Role: internal.RoleAdmin},
		{Name: "Femi Finance", Email: "finance.user@acme.test", Password: "password123", Role: internal.RoleFinance},
	}
	for _, dto := range users {
		if _, err := deps.Users.Create(ctx, company.ID, dto); err != nil {
			if stderrors.Is(err, user.ErrDuplicateEmail) {
				fmt.Println("user already exists:", dto.Email)
				continue
			}
			return fmt.Errorf("seed user %s: %w", dto.Email, err)
		}
		fmt.Println("Seeded user:", dto.Email)
	}

	departments := []department.CreateDepartmentDTO{
		{Name: "Engineering", Code: "ENG", Description: "Product and platform engineering"},
		{Name: "Operations", Code: "OPS", Description: "Fleet and warehouse operations"},
		{Name: "Finance", Code: "FIN", Description: "Accounts and treasury"},
	}
	for _, dto := range departments {
		if _, err := deps.Departments.Create(ctx, company.ID, dto); err != nil && !stderrors.Is(err, department.ErrDuplicateDepartment) {
			return fmt.Errorf("seed department %s: %w", dto.Code, err)
		}
	}
	deptIDs, err := departmentIDs(ctx, deps, company.ID)
	if err != nil {
		return err
	}
	fmt.Println("Seeded departments:", len(deptIDs))

	staff := []seedEmployee{
		{"Chidi Okafor", "chidi@acme.test", "Backend Engineer", "ENG", 450000, "0123456789", "058", "PID-100001"},
		{"Amaka Eze", "amaka@acme.test", "Frontend Engineer", "ENG", 380000, "0234567891", "044", "PID-100002"},
		{"Tunde Bello", "tunde@acme.test", "Operations Lead", "OPS", 300000, "0345678912", "033", "PID-100003"},
		{"Ngozi Adeyemi", "ngozi@acme.test", "Dispatcher", "OPS", 150000, "0456789123", "057", ""},
		{"Bola Ahmed", "bola@acme.test", "Accountant", "FIN", 280000, "0567891234", "011", "PID-100005"},
	}
	for _, s := range staff {
		deptID := deptIDs[s.department]
		dto := employee.CreateEmployeeDTO{
			Name:         s.name,
			Email:        s.email,
			Position:     s.position,
			DepartmentID: &deptID,
			Salary:       decimal.NewFromInt(s.salary),
			BankDetails: employeeDatamodel.BankDetails{
				AccountNumber: s.accountNumber,
				AccountName:   s.name,
				BankCode:      s.bankCode,
			},
		}
		if s.taxPID != "" {
			pid := s.taxPID
			dto.TaxPID = &pid
		}
		if _, err := deps.Employees.Create(ctx, company.ID, dto); err != nil {
			if stderrors.Is(err, employee.ErrDuplicateEmail) {
				continue
			}
			return fmt.Errorf("seed employee %s: %w", s.email, err)
		}
		fmt.Println("Seeded employee:", s.email)
	}

	if _, err := deps.Wallets.Open(ctx, &walletDatamodel.Wallet{
		CompanyID:        company.ID,
		AvailableBalance: decimal.NewFromInt(5_000_000),
		BookedBalance:    decimal.NewFromInt(5_000_000),
		ProviderWalletID: "seed-wallet-acme",
		AccountName:      company.Name,
		Status:           walletDatamodel.StatusActive,
	}); err != nil {
		return fmt.Errorf("seed wallet: %w", err)
	}
	fmt.Println("Seeded wallet for company:", company.Name)

	return seedRules(ctx, deps, company.ID, deptIDs)
}

func departmentIDs(ctx context.Context, deps *Dependencies, companyID int64) (map[string]int64, error) {
	list, err := deps.Departments.List(ctx, companyID, "")
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	ids := make(map[string]int64, len(list))
	for _, d := range list {
		ids[d.Code] = d.ID
	}
	return ids, nil
}

type seedRule struct {
	kind       compensationDatamodel.Kind
	dto        compensation.CreateRuleDTO
	department string
}

func seedRules(ctx context.Context, deps *Dependencies, companyID int64, deptIDs map[string]int64) error {
	rules := []seedRule{
		{compensationDatamodel.KindExtraEarning, compensation.CreateRuleDTO{
			Name: "Transport Allowance", Amount: decimal.NewFromInt(25000),
			Type: string(compensationDatamodel.AmountFixed), Frequency: string(compensationDatamodel.FrequencyRecurring),
		}, "OPS"},
		{compensationDatamodel.KindExtraEarning, compensation.CreateRuleDTO{
			Name: "On-call Allowance", Amount: decimal.NewFromInt(5),
			Type: string(compensationDatamodel.AmountPercentage), Frequency: string(compensationDatamodel.FrequencyRecurring),
		}, "ENG"},
		{compensationDatamodel.KindDeduction, compensation.CreateRuleDTO{
			Name: "Pension Contribution", Amount: decimal.NewFromInt(8),
			Type: string(compensationDatamodel.AmountPercentage), Frequency: string(compensationDatamodel.FrequencyRecurring),
		}, "FIN"},
	}

	for _, r := range rules {
		existing, err := deps.Rules.List(ctx, companyID, r.kind, "", "", 0)
		if err != nil {
			return fmt.Errorf("list rules: %w", err)
		}
		if hasRule(existing, r.dto.Name) {
			continue
		}

		created, err := deps.Rules.Create(ctx, companyID, r.kind, r.dto)
		if err != nil {
			return fmt.Errorf("seed rule %s: %w", r.dto.Name, err)
		}
		if _, err := deps.Rules.Apply(ctx, companyID, r.kind, created.ID, compensation.ApplyRuleDTO{
			TargetType: string(compensationDatamodel.TargetDepartment),
			TargetID:   deptIDs[r.department],
		}); err != nil {
			return fmt.Errorf("apply rule %s: %w", r.dto.Name, err)
		}
		fmt.Printf("Seeded %s rule: %s\n", r.kind, r.dto.Name)
	}
	return nil
}

func hasRule(rules []compensationDatamodel.Rule, name string) bool {
	for _, r := range rules {
		if r.Name == name {
			return true
		}
	}
	return false
}
