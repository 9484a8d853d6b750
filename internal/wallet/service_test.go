package wallet_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	errors "github.com/frahmantamala/payroll-engine/internal"
	walletDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/wallet"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/transport"
	"github.com/frahmantamala/payroll-engine/internal/wallet"
	walletPostgres "github.com/frahmantamala/payroll-engine/internal/wallet/postgres"
	"github.com/frahmantamala/payroll-engine/internal/walletprovider"
)

type fakeProvider struct {
	err      error
	requests []walletprovider.TransferRequest
}

func (f *fakeProvider) TransferToBank(ctx context.Context, req walletprovider.TransferRequest) (*walletprovider.TransferResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &walletprovider.TransferResult{Reference: req.Reference, TransactionID: "TX-1", Successful: true}, nil
}

var _ = Describe("Wallet Service", func() {
	var (
		db       *gorm.DB
		provider *fakeProvider
		service  *wallet.Service
		ctx      context.Context
		w        *walletDatamodel.Wallet
	)

	balance := func() string {
		current, err := service.GetBalance(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		return current.AvailableBalance.String()
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&walletDatamodel.Wallet{}, &walletDatamodel.Transaction{})).To(Succeed())

		provider = &fakeProvider{}
		service = wallet.NewService(
			walletPostgres.NewWalletRepository(db),
			walletPostgres.NewTransactionQuery(sqlx.NewDb(sqlDB, "sqlite3")),
			provider,
			database.NewTransactor(db),
			slogger,
		)

		w, err = service.Open(ctx, &walletDatamodel.Wallet{
			CompanyID:        1,
			AvailableBalance: decimal.NewFromInt(500000),
			ProviderWalletID: "cust-1",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Debit", func() {
		It("decrements the balance and reports both sides of the movement", func() {
			change, err := service.Debit(ctx, 1, decimal.NewFromInt(162849))

			Expect(err).NotTo(HaveOccurred())
			Expect(change.Before.String()).To(Equal("500000"))
			Expect(change.After.String()).To(Equal("337151"))
			Expect(balance()).To(Equal("337151"))
		})

		It("refuses to overdraw and leaves the balance untouched", func() {
			_, err := service.Debit(ctx, 1, decimal.NewFromInt(500001))

			Expect(err).To(MatchError(wallet.ErrInsufficientFunds))
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details).To(Equal(errors.InsufficientFundsDetails{RequiredAmount: "500001", CurrentBalance: "500000"}))
			Expect(balance()).To(Equal("500000"))
		})

		It("is undone when the surrounding transaction rolls back", func() {
			tx := database.NewTransactor(db)
			boom := stderrors.New("transfer failed")

			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				_, err := service.Debit(ctx, 1, decimal.NewFromInt(100000))
				Expect(err).NotTo(HaveOccurred())
				return boom
			})

			Expect(err).To(MatchError(boom))
			Expect(balance()).To(Equal("500000"))
		})

		It("reports a missing wallet", func() {
			_, err := service.Debit(ctx, 99, decimal.NewFromInt(1))
			Expect(err).To(MatchError(wallet.ErrWalletNotFound))
		})
	})

	Describe("Credit", func() {
		It("applies a reference only once", func() {
			_, err := service.Credit(ctx, 1, decimal.NewFromInt(1000), "fund-1", "", nil)
			Expect(err).NotTo(HaveOccurred())
			again, err := service.Credit(ctx, 1, decimal.NewFromInt(1000), "fund-1", "", nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(again.Reference).To(Equal("fund-1"))
			Expect(again.BalanceAfter.String()).To(Equal("501000"))
			Expect(balance()).To(Equal("501000"))
		})

		It("reports a missing wallet, not a missing transaction", func() {
			_, err := service.Credit(ctx, 99, decimal.NewFromInt(1000), "fund-2", "", nil)

			Expect(err).To(MatchError(wallet.ErrWalletNotFound))
			Expect(err).NotTo(MatchError(wallet.ErrTransactionNotFound))
			Expect(wallet.ErrTransactionNotFound).NotTo(MatchError(wallet.ErrWalletNotFound))
		})
	})

	Describe("TransferToBank", func() {
		It("wraps provider failures as external errors with vendor details", func() {
			provider.err = &walletprovider.Error{StatusCode: 422, Message: "Invalid account", Reference: "REF-1"}

			_, err := service.TransferToBank(ctx, walletprovider.TransferRequest{Amount: decimal.NewFromInt(10)})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeExternal))
			Expect(appErr.StatusCode).To(Equal(http.StatusBadGateway))
			Expect(appErr.Details).To(HaveKeyWithValue("reference", "REF-1"))
			Expect(appErr.Details).To(HaveKeyWithValue("status", 422))
		})
	})

	Describe("HandleWebhook", func() {
		It("credits the wallet addressed by the provider customer id", func() {
			err := service.HandleWebhook(ctx, wallet.WebhookEvent{Data: &wallet.WebhookData{
				Type: "WALLET_CREDIT", CustomerID: "cust-1", Amount: decimal.NewFromInt(2500), Reference: "wh-1",
			}})

			Expect(err).NotTo(HaveOccurred())
			Expect(balance()).To(Equal("502500"))
		})

		It("acknowledges events for unknown wallets without changes", func() {
			err := service.HandleWebhook(ctx, wallet.WebhookEvent{Data: &wallet.WebhookData{
				Type: wallet.WebhookWalletCredit, CustomerID: "nobody", Amount: decimal.NewFromInt(2500),
			}})

			Expect(err).NotTo(HaveOccurred())
			Expect(balance()).To(Equal("500000"))
		})

		It("records an uncovered provider debit as failed", func() {
			err := service.HandleWebhook(ctx, wallet.WebhookEvent{Data: &wallet.WebhookData{
				Type: wallet.WebhookWalletDebit, CustomerID: "cust-1", Amount: decimal.NewFromInt(900000), Reference: "wh-2",
			}})

			Expect(err).NotTo(HaveOccurred())
			Expect(balance()).To(Equal("500000"))

			var txn walletDatamodel.Transaction
			Expect(db.Where("reference = ?", "wh-2").First(&txn).Error).To(Succeed())
			Expect(txn.Status).To(Equal(walletDatamodel.TransactionFailed))
		})

		It("corrects the status of a matching bank transfer", func() {
			Expect(service.RecordTransaction(ctx, &walletDatamodel.Transaction{
				CompanyID: 1,
				Amount:    decimal.NewFromInt(100),
				Type:      walletDatamodel.TypeSalaryCredit,
				Status:    walletDatamodel.TransactionSuccessful,
				Reference: "salary-1",
			})).To(Succeed())

			err := service.HandleWebhook(ctx, wallet.WebhookEvent{Data: &wallet.WebhookData{
				Type: wallet.WebhookBankTransfer, Reference: "salary-1", TransactionID: "PRV-7", Status: "failed",
			}})
			Expect(err).NotTo(HaveOccurred())

			var txn walletDatamodel.Transaction
			Expect(db.Where("reference = ?", "salary-1").First(&txn).Error).To(Succeed())
			Expect(txn.Status).To(Equal(walletDatamodel.TransactionFailed))
			Expect(txn.ProviderTransactionID).NotTo(BeNil())
			Expect(*txn.ProviderTransactionID).To(Equal("PRV-7"))
		})

		It("rejects a payload without data", func() {
			err := service.HandleWebhook(ctx, wallet.WebhookEvent{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListTransactions", func() {
		It("pages through the company ledger newest first", func() {
			for _, ref := range []string{"a", "b", "c"} {
				_, err := service.Credit(ctx, 1, decimal.NewFromInt(10), ref, "", nil)
				Expect(err).NotTo(HaveOccurred())
			}

			result, err := service.ListTransactions(ctx, 1, wallet.TransactionFilter{
				Type: string(walletDatamodel.TypeWalletCredit),
				Page: transport.Page{Page: 1, Limit: 2},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(BeEquivalentTo(3))
			Expect(result.Transactions).To(HaveLen(2))
			Expect(result.Transactions[0].Reference).To(Equal("c"))
		})
	})

	Describe("Webhook handler", func() {
		var handler *wallet.Handler

		post := func(secret string) *httptest.ResponseRecorder {
			body, _ := json.Marshal(map[string]interface{}{
				"data": map[string]interface{}{"type": "wallet_credit", "customer_id": "cust-1", "amount": 100, "reference": "wh-9"},
			})
			req := httptest.NewRequest(http.MethodPost, "/webhooks/wallet", bytes.NewReader(body))
			if secret != "" {
				req.Header.Set(wallet.WebhookSecretHeader, secret)
			}
			rec := httptest.NewRecorder()
			handler.Webhook(rec, req)
			return rec
		}

		BeforeEach(func() {
			handler = wallet.NewHandler(transport.NewBaseHandler(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))), service, "shared-secret")
		})

		It("rejects calls without the shared secret", func() {
			Expect(post("").Code).To(Equal(http.StatusUnauthorized))
			Expect(post("wrong").Code).To(Equal(http.StatusUnauthorized))
			Expect(balance()).To(Equal("500000"))
		})

		It("applies calls carrying the shared secret", func() {
			Expect(post("shared-secret").Code).To(Equal(http.StatusOK))
			Expect(balance()).To(Equal("500100"))
		})
	})

	It("keeps the wallet id generated on open", func() {
		Expect(w.ID).NotTo(BeZero())
	})
})
