package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View the effective configuration and change the collection queries
and matcher threshold.

Settings come from built-in defaults, the config file and PRICEPILOT_*
environment variables, in that order.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsQueriesCmd = &cobra.Command{
	Use:   "queries [query...]",
	Short: "Set the collection queries",
	Long: `Replaces the query list searched at every vendor on each run.

Example:
  pricepilot settings queries "MacBook Pro" "Sony WH-1000XM4"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSettingsQueries,
}

var settingsThresholdCmd = &cobra.Command{
	Use:   "threshold [0-100]",
	Short: "Set the matcher similarity threshold",
	Long: `Sets the minimum similarity score (0-100) for a listing to be matched to
an existing product. Lower values merge more aggressively.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsThreshold,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsQueriesCmd)
	settingsCmd.AddCommand(settingsThresholdCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	p := cfg.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Similarity threshold: %g\n", p.SimilarityThreshold)
	cmd.Printf("  Materiality threshold: %s\n", p.MaterialityThreshold.String())
	cmd.Printf("  History retention: %d days\n", p.HistoryRetentionDays)
	cmd.Printf("  History window: %d days\n", p.HistoryWindowDays)
	cmd.Printf("  Retries: %d (base delay %s)\n", p.MaxRetries, p.RetryBaseDelay)
	cmd.Printf("  Default category: %s\n", orDash(p.DefaultCategory))
	cmd.Printf("  Queries: %s\n", strings.Join(p.Queries, ", "))
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Driver: %s\n", cfg.Storage.Driver)
	switch cfg.Storage.Driver {
	case domain.StorageDriverSQLite:
		cmd.Printf("  Path: %s\n", cfg.Storage.Path)
	case domain.StorageDriverPostgres:
		cmd.Printf("  DSN: %s\n", maskDSN(cfg.Storage.DSN))
	}
	cmd.Println()

	cmd.Println("[Scheduler]")
	if cfg.Scheduler.Enabled {
		collection := cfg.Scheduler.GetTaskConfig(domain.TaskIDPriceCollection)
		prune := cfg.Scheduler.GetTaskConfig(domain.TaskIDHistoryPrune)
		cmd.Printf("  Collection every: %s\n", collection.Interval)
		cmd.Printf("  Prune every: %s\n", prune.Interval)
	} else {
		cmd.Println("  Enabled: no")
	}
	cmd.Println()

	cmd.Println("[Integrations]")
	cmd.Printf("  Redis run lock: %s\n", enabledOr(cfg.Redis.Addr))
	cmd.Printf("  Kafka events: %s\n", enabledOr(strings.Join(cfg.Kafka.Brokers, ",")))
	cmd.Printf("  Metrics: %s\n", enabledOr(cfg.Metrics.Addr))
	cmd.Println()

	cmd.Println("[Vendors]")
	for _, v := range cfg.Vendors {
		state := "active"
		if !v.Active {
			state = "inactive"
		}
		cmd.Printf("  %s (%s, %s, every %gs)\n", v.ID, v.Kind, state, v.RateLimitSeconds)
	}

	return nil
}

func runSettingsQueries(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetQueries(args); err != nil {
		return fmt.Errorf("failed to set queries: %w", err)
	}

	cmd.Printf("Queries set: %s\n", strings.Join(args, ", "))
	return nil
}

func runSettingsThreshold(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	threshold, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid threshold %q", args[0])
	}

	if err := settingsService.SetSimilarityThreshold(threshold); err != nil {
		return fmt.Errorf("failed to set threshold: %w", err)
	}

	cmd.Printf("Similarity threshold set to %g\n", threshold)
	return nil
}

func enabledOr(addr string) string {
	if addr == "" {
		return "disabled"
	}
	return addr
}

// maskDSN hides the password in a postgres connection URL.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "****"
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":****@" + host
}
