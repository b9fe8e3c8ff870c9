package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridwatt/evrouter/infra/logger"
	"github.com/gridwatt/evrouter/loadgen"
)

var (
	loadTarget   string
	loadPattern  string
	loadRequests int
	loadWorkers  int
	loadDuration time.Duration
	loadOutput   string
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Drive synthetic charging demand against a running router",
	RunE:  runLoadtest,
}

func init() {
	loadtestCmd.Flags().StringVar(&loadTarget, "target", "http://localhost:8080", "router base url")
	loadtestCmd.Flags().StringVar(&loadPattern, "pattern", "rush-hour", "traffic pattern: rush-hour, sustained or spike")
	loadtestCmd.Flags().IntVar(&loadRequests, "requests", 200, "total requests to send")
	loadtestCmd.Flags().IntVar(&loadWorkers, "workers", 20, "concurrent workers")
	loadtestCmd.Flags().DurationVar(&loadDuration, "duration", 60*time.Second, "pacing window for rush-hour and sustained")
	loadtestCmd.Flags().StringVar(&loadOutput, "output", "", "write the JSON report to this file")
	rootCmd.AddCommand(loadtestCmd)
}

func runLoadtest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tester := loadgen.New(loadgen.Options{
		TargetURL: loadTarget,
		Pattern:   loadPattern,
		Requests:  loadRequests,
		Workers:   loadWorkers,
		Duration:  loadDuration,
	}, logger.New("loadtest"))
	report, err := tester.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("pattern=%s total=%d assigned=%d no_capacity=%d rejected=%d errors=%d success=%.1f%%\n",
		report.Pattern, report.TotalRequests, report.Assigned, report.NoCapacity, report.Rejected, report.Errors, report.SuccessRate)
	fmt.Printf("latency ms: mean=%.1f p50=%.1f p90=%.1f p95=%.1f p99=%.1f elapsed=%.1fs\n",
		report.LatencyMeanMS, report.LatencyP50MS, report.LatencyP90MS, report.LatencyP95MS, report.LatencyP99MS, report.ElapsedSecs)
	if loadOutput != "" {
		if err := report.WriteFile(loadOutput); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
