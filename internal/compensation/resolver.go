package compensation

import (
	"time"

	"github.com/shopspring/decimal"

	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
)

var hundred = decimal.NewFromInt(100)

// Subject is the employee view the resolver needs.
type Subject struct {
	EmployeeID   int64
	DepartmentID *int64
	BaseSalary   decimal.Decimal
}

// Resolve returns one line item per rule that applies to the subject at now.
// Rules are not de-duplicated; a rule matching by employee and by department
// still contributes once.
func Resolve(subject Subject, rules []compensationDatamodel.Rule, now time.Time) payrollDatamodel.LineItems {
	items := make(payrollDatamodel.LineItems, 0)
	for _, rule := range rules {
		if !Applies(rule, subject, now) {
			continue
		}
		items = append(items, payrollDatamodel.LineItem{
			Type:        rule.Name,
			Amount:      Amount(rule, subject.BaseSalary),
			Description: rule.Description,
		})
	}
	return items
}

// Applies reports whether any active application of rule targets the subject.
func Applies(rule compensationDatamodel.Rule, subject Subject, now time.Time) bool {
	for _, app := range rule.Applications {
		if !app.ActiveAt(now) {
			continue
		}
		switch app.TargetType {
		case compensationDatamodel.TargetEmployee:
			if app.TargetID == subject.EmployeeID {
				return true
			}
		case compensationDatamodel.TargetDepartment:
			if subject.DepartmentID != nil && app.TargetID == *subject.DepartmentID {
				return true
			}
		}
	}
	return false
}

// Amount is the rule value for a base salary; percentages round to whole units.
func Amount(rule compensationDatamodel.Rule, base decimal.Decimal) decimal.Decimal {
	if rule.Type == compensationDatamodel.AmountPercentage {
		return base.Mul(rule.Amount).Div(hundred).Round(0)
	}
	return rule.Amount
}

// Recurring drops one-time rules.
func Recurring(rules []compensationDatamodel.Rule) []compensationDatamodel.Rule {
	out := make([]compensationDatamodel.Rule, 0, len(rules))
	for _, r := range rules {
		if r.Frequency == compensationDatamodel.FrequencyRecurring {
			out = append(out, r)
		}
	}
	return out
}
