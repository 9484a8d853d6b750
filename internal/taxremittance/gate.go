package taxremittance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-engine/internal"
)

const (
	PayStatusSuccess = "SUCCESS"
	PayStatusFailure = "FAILURE"
)

// TaxAuthorityGate settles PAYE for one taxpayer.
type TaxAuthorityGate interface {
	PayTax(ctx context.Context, req PayTaxRequest) (*PayTaxResult, error)
}

type PayTaxRequest struct {
	PID         string          `json:"pid"`
	Amount      decimal.Decimal `json:"amount"`
	AppliedDate time.Time       `json:"appliedDate"`
	Email       string          `json:"email"`
	Mobile      string          `json:"mobile"`
}

type PayTaxResult struct {
	Status        string
	Message       string
	PaymentRef    string
	ReceiptNumber string
}

type payTaxResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Transaction struct {
		PaymentRef    string `json:"paymentRef"`
		ReceiptNumber string `json:"receiptNumber"`
	} `json:"transaction"`
}

// Client talks to the state revenue service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg internal.TaxAuthorityConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) PayTax(ctx context.Context, req PayTaxRequest) (*PayTaxResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tax payment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/merchant/bill/LASG/PAYETax", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Info("submitting tax payment", "amount", req.Amount.String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tax authority request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax authority response: %w", err)
	}

	var out payTaxResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("failed to decode tax authority response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("tax authority returned %d: %s", resp.StatusCode, msg)
	}

	return &PayTaxResult{
		Status:        strings.ToUpper(out.Status),
		Message:       out.Message,
		PaymentRef:    out.Transaction.PaymentRef,
		ReceiptNumber: out.Transaction.ReceiptNumber,
	}, nil
}
