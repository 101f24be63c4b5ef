package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pricepilot/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled collection in the foreground",
	Long: `Runs the scheduler until interrupted. Prices are collected every
collection interval (6h by default) and archived history is pruned daily.
The config file is watched and query or threshold changes apply to the
next run. When metrics.addr is set a Prometheus endpoint is served too.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	for _, task := range backgroundTasks {
		wg.Add(1)
		go func(task BackgroundTask) {
			defer wg.Done()
			if err := task(ctx); err != nil && ctx.Err() == nil {
				logger.Error("background task failed: %v", err)
			}
		}(task)
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err := scheduler.Start(ctx)

	cancel()
	if stopErr := scheduler.Stop(); stopErr != nil {
		logger.Warn("stopping scheduler: %v", stopErr)
	}
	wg.Wait()

	if cmd.Context().Err() != nil {
		cmd.Println("Scheduler stopped.")
		return nil
	}
	return err
}
