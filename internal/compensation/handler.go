package compensation

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	"github.com/frahmantamala/payroll-engine/internal/transport"
	"github.com/frahmantamala/payroll-engine/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, dto CreateRuleDTO) (*compensationDatamodel.Rule, error)
	Apply(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID int64, dto ApplyRuleDTO) (*compensationDatamodel.Rule, error)
	List(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, status, targetType string, targetID int64) ([]compensationDatamodel.Rule, error)
	Update(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID int64, dto UpdateRuleDTO) (*compensationDatamodel.Rule, error)
	RemoveApplication(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID, applicationID int64) (*compensationDatamodel.Rule, error)
	Delete(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID int64) (*compensationDatamodel.Rule, error)
}

// Handler serves one rule kind; deductions and extra earnings each get their own.
type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Kind    compensationDatamodel.Kind
}

func NewHandler(service ServiceAPI, kind compensationDatamodel.Kind) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		Kind:        kind,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateRuleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	rule, err := h.Service.Create(r.Context(), actor.CompanyID, h.Kind, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rule)
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	ruleID, ok := h.IDParam(w, r, "ruleID")
	if !ok {
		return
	}

	var dto ApplyRuleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	rule, err := h.Service.Apply(r.Context(), actor.CompanyID, h.Kind, ruleID, dto)
	if err != nil {
		h.Logger.Error("Apply: service error", "error", err, "rule_id", ruleID, "kind", h.Kind)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var targetID int64
	if raw := q.Get("target_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid target_id")
			return
		}
		targetID = id
	}

	rules, err := h.Service.List(r.Context(), actor.CompanyID, h.Kind, q.Get("status"), q.Get("target_type"), targetID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"kind":  h.Kind,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	ruleID, ok := h.IDParam(w, r, "ruleID")
	if !ok {
		return
	}

	var dto UpdateRuleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	rule, err := h.Service.Update(r.Context(), actor.CompanyID, h.Kind, ruleID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) RemoveApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	ruleID, ok := h.IDParam(w, r, "ruleID")
	if !ok {
		return
	}
	appID, ok := h.IDParam(w, r, "applicationID")
	if !ok {
		return
	}

	rule, err := h.Service.RemoveApplication(r.Context(), actor.CompanyID, h.Kind, ruleID, appID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rule)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}
	ruleID, ok := h.IDParam(w, r, "ruleID")
	if !ok {
		return
	}

	rule, err := h.Service.Delete(r.Context(), actor.CompanyID, h.Kind, ruleID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Delete: rule deactivated", "rule_id", ruleID, "kind", h.Kind)
	h.WriteJSON(w, http.StatusOK, rule)
}
