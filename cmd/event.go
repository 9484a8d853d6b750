package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/payroll-engine/internal/core/events"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish sample domain events through the notification subscriber to check templates and mail delivery.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample event",
	Long: fmt.Sprintf("Publish a sample event synchronously. Supported types: %s, %s, %s, %s",
		events.EventTypeWalletLowBalance, events.EventTypePayrollDisbursed,
		events.EventTypePayslipPaid, events.EventTypeRemittanceProcessed),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishSampleEvent(args[0])
	},
}

var (
	eventCompanyID  int64
	eventEmployeeID int64
)

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeWalletLowBalance:
		return events.NewLowBalanceEvent(eventCompanyID, 0, decimal.NewFromInt(1_500_000), decimal.NewFromInt(250_000)), nil
	case events.EventTypePayrollDisbursed:
		return events.NewPayrollDisbursedEvent(eventCompanyID, 0, "Sample payroll", "completed", 5, 0), nil
	case events.EventTypePayslipPaid:
		return events.NewPayslipPaidEvent(eventCompanyID, 0, 0, eventEmployeeID, "Sample Employee",
			decimal.NewFromInt(320_000), fmt.Sprintf("SAMPLE-%d", time.Now().Unix())), nil
	case events.EventTypeRemittanceProcessed:
		return events.NewRemittanceProcessedEvent(eventCompanyID, 0, time.Now().Format("2006-01"), "completed",
			decimal.NewFromInt(85_750), 3, 0), nil
	default:
		return nil, fmt.Errorf("unsupported event type %q", eventType)
	}
}

func publishSampleEvent(eventType string) {
	event, err := sampleEvent(eventType)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	lg := deps.Logger
	lg.Info("publishing sample event", "event_type", event.EventType(), "event_id", event.EventID())

	if err := deps.Bus.PublishSync(context.Background(), event); err != nil {
		lg.Error("event handler failed", "event_type", event.EventType(), "error", err)
		os.Exit(1)
	}
	lg.Info("sample event delivered", "event_type", event.EventType())
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventCompanyID, "company", 1, "company id the event belongs to")
	publishEventCmd.Flags().Int64Var(&eventEmployeeID, "employee", 1, "employee id for payslip events")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
