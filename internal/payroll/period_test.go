package payroll_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expectContiguous(periods []payrollDatamodel.Period) {
	GinkgoHelper()
	for i := 1; i < len(periods); i++ {
		Expect(periods[i].StartDate).To(Equal(periods[i-1].EndDate.AddDate(0, 0, 1)), "period %d", i)
	}
}

var _ = Describe("Periods", func() {
	It("returns only the caller's bounds for one-off schedules", func() {
		periods := payroll.Periods(payrollDatamodel.FrequencyMonthly, day(2026, 10, 1), day(2026, 10, 31), false)
		Expect(periods).To(HaveLen(1))
		Expect(periods[0].StartDate).To(Equal(day(2026, 10, 1)))
	})

	It("fills the rest of the year with calendar months", func() {
		periods := payroll.Periods(payrollDatamodel.FrequencyMonthly, day(2026, 10, 5), day(2026, 10, 31), true)
		Expect(periods).To(HaveLen(3))
		Expect(periods[0].StartDate).To(Equal(day(2026, 10, 5)))
		Expect(periods[1].StartDate).To(Equal(day(2026, 11, 1)))
		Expect(periods[1].EndDate).To(Equal(day(2026, 11, 30)))
		Expect(periods[2].StartDate).To(Equal(day(2026, 12, 1)))
		Expect(periods[2].EndDate).To(Equal(day(2026, 12, 31)))
	})

	It("aligns weekly periods on Monday to Sunday", func() {
		// 2026-12-16 is a Wednesday.
		periods := payroll.Periods(payrollDatamodel.FrequencyWeekly, day(2026, 12, 16), day(2026, 12, 20), true)
		Expect(periods).To(HaveLen(3))
		Expect(periods[1].StartDate).To(Equal(day(2026, 12, 21)))
		Expect(periods[1].StartDate.Weekday()).To(Equal(time.Monday))
		Expect(periods[1].EndDate).To(Equal(day(2026, 12, 27)))
		Expect(periods[2].StartDate).To(Equal(day(2026, 12, 28)))
	})

	It("spans Monday to the second Sunday for bi-weekly periods", func() {
		periods := payroll.Periods(payrollDatamodel.FrequencyBiWeekly, day(2026, 11, 30), day(2026, 12, 13), true)
		Expect(periods).To(HaveLen(3))
		Expect(periods[1].StartDate).To(Equal(day(2026, 12, 14)))
		Expect(periods[1].EndDate).To(Equal(day(2026, 12, 27)))
		Expect(periods[2].StartDate).To(Equal(day(2026, 12, 28)))
		Expect(periods[2].EndDate).To(Equal(day(2027, 1, 10)))
	})

	It("pays the rest of a month when the first period ends mid-month", func() {
		periods := payroll.Periods(payrollDatamodel.FrequencyMonthly, day(2026, 1, 15), day(2026, 2, 14), true)
		Expect(periods[1].StartDate).To(Equal(day(2026, 2, 15)))
		Expect(periods[1].EndDate).To(Equal(day(2026, 2, 28)))
		Expect(periods[2].StartDate).To(Equal(day(2026, 3, 1)))
		Expect(periods[2].EndDate).To(Equal(day(2026, 3, 31)))
		Expect(periods[len(periods)-1].EndDate).To(Equal(day(2026, 12, 31)))
		expectContiguous(periods)
	})

	It("pays the rest of a week when the first period ends mid-week", func() {
		// 2026-10-14 is a Wednesday, 2026-10-20 a Tuesday.
		periods := payroll.Periods(payrollDatamodel.FrequencyWeekly, day(2026, 10, 14), day(2026, 10, 20), true)
		Expect(periods[1].StartDate).To(Equal(day(2026, 10, 21)))
		Expect(periods[1].EndDate).To(Equal(day(2026, 10, 25)))
		Expect(periods[1].EndDate.Weekday()).To(Equal(time.Sunday))
		Expect(periods[2].StartDate).To(Equal(day(2026, 10, 26)))
		Expect(periods[2].StartDate.Weekday()).To(Equal(time.Monday))
		expectContiguous(periods)
	})

	It("adds nothing when the first period ends the year", func() {
		periods := payroll.Periods(payrollDatamodel.FrequencyMonthly, day(2026, 12, 1), day(2026, 12, 31), true)
		Expect(periods).To(HaveLen(1))
	})

	It("steps by one frequency unit", func() {
		Expect(payroll.Step(payrollDatamodel.FrequencyWeekly, day(2026, 1, 1))).To(Equal(day(2026, 1, 8)))
		Expect(payroll.Step(payrollDatamodel.FrequencyBiWeekly, day(2026, 1, 1))).To(Equal(day(2026, 1, 15)))
		Expect(payroll.Step(payrollDatamodel.FrequencyMonthly, day(2026, 1, 1))).To(Equal(day(2026, 2, 1)))
	})
})
