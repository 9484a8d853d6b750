package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/transport"
	"github.com/frahmantamala/payroll-engine/pkg/logger"
)

type ServiceAPI interface {
	Schedule(ctx context.Context, companyID int64, dto ScheduleDTO) ([]*payrollDatamodel.Payroll, error)
	List(ctx context.Context, companyID int64, filter ListFilter) (*ListResult, error)
	Summary(ctx context.Context, companyID int64, from, to *time.Time) (*SummaryReport, error)
	Get(ctx context.Context, companyID, id int64) (*payrollDatamodel.Payroll, error)
	Update(ctx context.Context, companyID, id int64, dto UpdatePayrollDTO) (*payrollDatamodel.Payroll, error)
	Delete(ctx context.Context, companyID, id int64) error
	RemoveEmployee(ctx context.Context, companyID, payrollID, employeeID int64) (*RemoveEmployeeResult, error)
	PayslipPDF(ctx context.Context, companyID, payrollID, payslipID int64) ([]byte, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto ScheduleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	batches, err := h.Service.Schedule(r.Context(), actor.CompanyID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Payroll scheduled successfully",
		"payroll":  batches[0],
		"payrolls": batches,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := ListFilter{
		Status:    q.Get("status"),
		Frequency: q.Get("frequency"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Page:      transport.ParsePage(r),
	}
	var err error
	if filter.From, err = parseDateParam(q.Get("start_date")); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	if filter.To, err = parseDateParam(q.Get("end_date")); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	result, err := h.Service.List(r.Context(), actor.CompanyID, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	from, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	to, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	report, err := h.Service.Summary(r.Context(), actor.CompanyID, from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "payrollID")
	if !ok {
		return
	}

	p, err := h.Service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "payrollID")
	if !ok {
		return
	}

	var dto UpdatePayrollDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.Update(r.Context(), actor.CompanyID, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Payroll updated successfully",
		"payroll": p,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "payrollID")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), actor.CompanyID, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Payroll deleted successfully"})
}

func (h *Handler) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	payrollID, ok := h.IDParam(w, r, "payrollID")
	if !ok {
		return
	}
	employeeID, ok := h.IDParam(w, r, "employeeID")
	if !ok {
		return
	}

	result, err := h.Service.RemoveEmployee(r.Context(), actor.CompanyID, payrollID, employeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) PayslipPDF(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	payrollID, ok := h.IDParam(w, r, "payrollID")
	if !ok {
		return
	}
	payslipID, ok := h.IDParam(w, r, "payslipID")
	if !ok {
		return
	}

	body, err := h.Service.PayslipPDF(r.Context(), actor.CompanyID, payrollID, payslipID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="payslip-%d.pdf"`, payslipID))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.Logger.Error("failed to write payslip pdf", "error", err)
	}
}

// parseDateParam accepts a calendar date or an RFC 3339 timestamp.
func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
