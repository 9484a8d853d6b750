package walletprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-engine/internal"
)

const defaultTimeout = 30 * time.Second

// Error is a failure reported by the wallet provider, or a transport failure
// when StatusCode is zero.
type Error struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
	Reference  string `json:"reference,omitempty"`
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("wallet provider: %s", e.Message)
	}
	return fmt.Sprintf("wallet provider returned %d: %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func ConfigFrom(cfg internal.WalletProviderConfig) Config {
	return Config{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Timeout: cfg.Timeout}
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
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

const IdempotencyHeader = "Idempotency-Key"

type TransferRequest struct {
	Amount        decimal.Decimal        `json:"amount"`
	SortCode      string                 `json:"sortCode"`
	AccountNumber string                 `json:"accountNumber"`
	AccountName   string                 `json:"accountName"`
	Narration     string                 `json:"narration"`
	Reference     string                 `json:"reference"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	// IdempotencyKey is sent as the Idempotency-Key header. The provider
	// answers a repeated key with the original transfer. Defaults to Reference.
	IdempotencyKey string `json:"-"`
}

func (r TransferRequest) validate() error {
	if !r.Amount.IsPositive() {
		return &Error{Message: "transfer amount must be greater than zero", Reference: r.Reference}
	}
	if r.SortCode == "" || r.AccountNumber == "" || r.AccountName == "" {
		return &Error{Message: "missing required transfer details", Reference: r.Reference}
	}
	return nil
}

type TransferResult struct {
	Reference     string
	TransactionID string
	Successful    bool
}

type transferResponse struct {
	Status        bool   `json:"status"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
}

type accountResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Account struct {
		AccountName   string `json:"accountName"`
		AccountNumber string `json:"accountNumber"`
		BankCode      string `json:"bankCode"`
	} `json:"account"`
}

type errorResponse struct {
	Message string `json:"message"`
	Details struct {
		Reference string `json:"reference"`
	} `json:"details"`
}

// TransferToBank moves money from the company wallet to an external account.
// A response whose status flag is false is reported as an *Error.
func (c *Client) TransferToBank(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.Narration == "" {
		req.Narration = "Salary Payment"
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	c.logger.Info("initiating bank transfer",
		"reference", req.Reference,
		"amount", req.Amount.String(),
		"sort_code", req.SortCode)

	key := req.IdempotencyKey
	if key == "" {
		key = req.Reference
	}
	header := http.Header{}
	header.Set(IdempotencyHeader, key)

	var out transferResponse
	if err := c.do(ctx, http.MethodPost, "/transfer/bank", nil, header, req, &out); err != nil {
		if perr, ok := err.(*Error); ok && perr.Reference == "" {
			perr.Reference = req.Reference
		}
		c.logger.Warn("bank transfer failed", "reference", req.Reference, "error", err)
		return nil, err
	}

	if !out.Status {
		msg := out.Message
		if msg == "" {
			msg = "transfer was not accepted"
		}
		return nil, &Error{StatusCode: http.StatusOK, Message: msg, Reference: req.Reference}
	}

	ref := out.Reference
	if ref == "" {
		ref = req.Reference
	}
	c.logger.Info("bank transfer accepted", "reference", ref, "transaction_id", out.TransactionID)

	return &TransferResult{Reference: ref, TransactionID: out.TransactionID, Successful: true}, nil
}

// ResolveAccount returns the registered name on a bank account.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	if accountNumber == "" || bankCode == "" {
		return "", &Error{Message: "account number and bank code are required"}
	}

	query := url.Values{}
	query.Set("sortCode", bankCode)
	query.Set("accountNumber", accountNumber)

	var out accountResponse
	if err := c.do(ctx, http.MethodGet, "/transfer/account/details", query, nil, nil, &out); err != nil {
		return "", err
	}
	if !out.Status || out.Account.AccountName == "" {
		msg := out.Message
		if msg == "" {
			msg = "account verification failed"
		}
		return "", &Error{StatusCode: http.StatusNotFound, Message: msg}
	}
	return out.Account.AccountName, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: e.Message, Reference: e.Details.Reference}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return nil
}
