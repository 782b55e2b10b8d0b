package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Eroleice/Quant-Cat/internal/di"
	"github.com/Eroleice/Quant-Cat/internal/domain"
	"github.com/Eroleice/Quant-Cat/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate one daily report",
	Long: `Generates the report for one trade date and exits. The date defaults to
today in exchange time. Exits non-zero when any stage fails.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var (
	runDate        string
	runDev         bool
	runSkipPublish bool
)

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "trade date, YYYY-MM-DD or YYYYMMDD (default today)")
	runCmd.Flags().BoolVar(&runDev, "dev", false, "write to the dev folder and skip publishing")
	runCmd.Flags().BoolVar(&runSkipPublish, "skip-publish", false, "render without uploading")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	tradeDate, err := pipeline.ResolveDate(runDate, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	defer container.Close()

	res, err := container.Runner.Run(ctx, pipeline.Options{
		Date:        tradeDate,
		Dev:         runDev || cfg.DevMode,
		SkipPublish: runSkipPublish,
	})
	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			return fmt.Errorf("report for %s aborted at stage %s: %w", tradeDate.Format("2006-01-02"), stageErr.Stage, stageErr.Err)
		}
		return err
	}

	fmt.Printf("Report for %s written to %s\n", tradeDate.Format("2006-01-02"), res.Dir)
	for _, name := range res.Files {
		fmt.Printf("  %s\n", name)
	}
	for _, key := range res.Published {
		fmt.Printf("  uploaded %s\n", key)
	}
	return nil
}
