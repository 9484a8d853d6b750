package disbursement

import (
	"context"
	"net/http"

	"github.com/frahmantamala/payroll-engine/internal/transport"
)

type ServiceAPI interface {
	Process(ctx context.Context, companyID, payrollID int64) (*Result, error)
	RetryPayslip(ctx context.Context, companyID, payrollID, payslipID int64) (*Result, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	payrollID, ok := h.IDParam(w, r, "payrollID")
	if !ok {
		return
	}

	result, err := h.Service.Process(r.Context(), actor.CompanyID, payrollID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Payroll processed",
		"result":  result,
	})
}

func (h *Handler) RetryPayslip(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.Service.RetryPayslip(r.Context(), actor.CompanyID, payrollID, payslipID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Payslip retry processed",
		"result":  result,
	})
}
