package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/payroll-engine/internal/scheduler"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers such as the monthly payroll scheduler.`,
}

var schedulerWorkerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the payroll scheduler",
	Long:  `Run due pending payrolls on the configured cron spec until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		startSchedulerWorker()
	},
}

var (
	schedulerSpec string
	runOnce       bool
)

func startSchedulerWorker() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	lg := deps.Logger
	spec := getStringFlag(schedulerSpec, deps.Config.Scheduler.CronSpec())
	sched := scheduler.New(spec, deps.Payrolls, deps.Disbursement, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if runOnce {
		if _, err := sched.RunDue(ctx); err != nil {
			lg.Error("payroll run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if !deps.Config.Scheduler.Enabled && schedulerSpec == "" {
		lg.Warn("scheduler disabled in config; pass --spec to run it anyway")
		return
	}

	if err := sched.Start(ctx); err != nil {
		lg.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("scheduler worker is running. Press Ctrl+C to stop.")
	sig := <-sigChan
	lg.Info("received signal, shutting down scheduler", "signal", sig)

	cancel()
	select {
	case <-sched.Stop().Done():
		lg.Info("scheduler shutdown complete")
	case <-time.After(shutdownTimeout):
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	schedulerWorkerCmd.Flags().StringVar(&schedulerSpec, "spec", "", "cron spec (overrides config)")
	schedulerWorkerCmd.Flags().BoolVar(&runOnce, "once", false, "process due payrolls once and exit")

	workerCmd.AddCommand(schedulerWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
