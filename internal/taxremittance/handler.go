package taxremittance

import (
	"context"
	"net/http"

	remittanceDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/taxremittance"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

type ServiceAPI interface {
	Build(ctx context.Context, companyID, payrollID int64) (*remittanceDatamodel.Remittance, error)
	Get(ctx context.Context, companyID, id int64) (*remittanceDatamodel.Remittance, error)
	List(ctx context.Context, companyID int64, status string) ([]remittanceDatamodel.Remittance, error)
	Process(ctx context.Context, companyID, id int64) (*remittanceDatamodel.Remittance, error)
	RetryLine(ctx context.Context, companyID, id, employeeID int64) (*remittanceDatamodel.Remittance, error)
}

type BuildRequest struct {
	PayrollID int64 `json:"payroll_id"`
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

func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var req BuildRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if req.PayrollID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "payroll_id is required")
		return
	}

	rem, err := h.Service.Build(r.Context(), actor.CompanyID, req.PayrollID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Tax remittance created",
		"remittance": rem,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	items, err := h.Service.List(r.Context(), actor.CompanyID, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"remittances": items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "remittanceID")
	if !ok {
		return
	}

	rem, err := h.Service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rem)
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "remittanceID")
	if !ok {
		return
	}

	rem, err := h.Service.Process(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Tax remittance processed",
		"remittance": rem,
	})
}

func (h *Handler) RetryLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "remittanceID")
	if !ok {
		return
	}
	employeeID, ok := h.IDParam(w, r, "employeeID")
	if !ok {
		return
	}

	rem, err := h.Service.RetryLine(r.Context(), actor.CompanyID, id, employeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Payment retry successful",
		"remittance": rem,
	})
}
