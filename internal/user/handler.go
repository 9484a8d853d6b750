package user

import (
	"context"
	"net/http"

	userDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/user"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

type ServiceAPI interface {
	Get(ctx context.Context, companyID, id int64) (*userDatamodel.User, error)
	List(ctx context.Context, companyID int64) ([]userDatamodel.User, error)
	Create(ctx context.Context, companyID int64, dto CreateUserDTO) (*userDatamodel.User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	u, err := h.Service.Get(r.Context(), actor.CompanyID, actor.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToResponse(u))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	users, err := h.Service.List(r.Context(), actor.CompanyID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = ToResponse(&users[i])
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateUserDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	u, err := h.Service.Create(r.Context(), actor.CompanyID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToResponse(u))
}
