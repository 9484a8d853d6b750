package wallet

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	walletDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/wallet"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

// WebhookSecretHeader carries the secret shared with the wallet provider.
const WebhookSecretHeader = "X-Webhook-Secret"

type ServiceAPI interface {
	GetBalance(ctx context.Context, companyID int64) (*walletDatamodel.Wallet, error)
	ListTransactions(ctx context.Context, companyID int64, filter TransactionFilter) (*TransactionList, error)
	HandleWebhook(ctx context.Context, event WebhookEvent) error
}

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	webhookSecret string
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, webhookSecret string) *Handler {
	return &Handler{
		BaseHandler:   baseHandler,
		Service:       service,
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	wal, err := h.Service.GetBalance(r.Context(), actor.CompanyID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToBalanceResponse(wal))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := TransactionFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Page:   transport.ParsePage(r),
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid "+name+" date, expected YYYY-MM-DD")
			return
		}
		*dst = &t
	}

	result, err := h.Service.ListTransactions(r.Context(), actor.CompanyID, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// Webhook acknowledges provider notifications with 200 once they are applied
// or deliberately ignored.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(WebhookSecretHeader)
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		h.Logger.Warn("webhook rejected", "remote_addr", r.RemoteAddr)
		h.WriteError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var event WebhookEvent
	if !h.DecodeJSON(w, r, &event) {
		return
	}

	h.Logger.Info("wallet webhook received", "has_data", event.Data != nil)

	if err := h.Service.HandleWebhook(r.Context(), event); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Webhook processed successfully"})
}
