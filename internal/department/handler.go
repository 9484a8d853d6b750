package department

import (
	"context"
	"net/http"

	"github.com/frahmantamala/payroll-engine/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, companyID int64, dto CreateDepartmentDTO) (*DepartmentResponse, error)
	List(ctx context.Context, companyID int64, status string) ([]DepartmentResponse, error)
	Deactivate(ctx context.Context, companyID, id int64) (*DepartmentResponse, error)
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

func (h *Handler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	departments, err := h.Service.List(r.Context(), actor.CompanyID, r.URL.Query().Get("status"))
	if err != nil {
		h.Logger.Error("GetDepartments: failed to get departments", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DepartmentsResponse{
		Departments: departments,
	})
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateDepartmentDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	d, err := h.Service.Create(r.Context(), actor.CompanyID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) DeactivateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "departmentID")
	if !ok {
		return
	}

	d, err := h.Service.Deactivate(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}
