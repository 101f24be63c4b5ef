// Package cli provides the pricepilot command line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// version is set at build time.
var version = "dev"

// annotationNoServices marks commands that run without building services.
const annotationNoServices = "pricepilot/no-services"

// Services injected by SetServices or built lazily by Execute.
var (
	collector        driving.Collector
	analyticsService driving.AnalyticsService
	catalogReader    driving.CatalogReader
	ledgerService    driving.LedgerService
	settingsService  driving.SettingsService
	scheduler        driving.Scheduler
	backgroundTasks  []BackgroundTask
)

var (
	configDir string
	verbose    bool

	buildServices Builder
	closeServices func() error

	stdout io.Writer = os.Stdout
)

// BackgroundTask runs alongside the scheduler until ctx is cancelled.
type BackgroundTask func(ctx context.Context) error

// Services holds the driving ports the commands operate on.
type Services struct {
	Collector       driving.Collector
	Analytics       driving.AnalyticsService
	Catalog         driving.CatalogReader
	Ledger          driving.LedgerService
	Settings        driving.SettingsService
	Scheduler       driving.Scheduler
	BackgroundTasks []BackgroundTask

	// Close releases stores and connections. May be nil.
	Close func() error
}

// Builder wires services from config.toml in configDir.
type Builder func(ctx context.Context, configDir string) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "pricepilot",
	Short: "Collect, reconcile and analyse retail prices",
	Long: `pricepilot collects product prices from configured vendors, reconciles
listings that name the same product differently, keeps an archive of
material price changes and reports deals, alerts and trends.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory holding config.toml (default ~/.pricepilot)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects already built services.
func SetServices(s *Services) {
	collector = s.Collector
	analyticsService = s.Analytics
	catalogReader = s.Catalog
	ledgerService = s.Ledger
	settingsService = s.Settings
	scheduler = s.Scheduler
	backgroundTasks = s.BackgroundTasks
	closeServices = s.Close
}

// Execute runs the root command. Services are built by builder once the
// command line is parsed, so --config and --verbose apply to them.
func Execute(ctx context.Context, builder Builder) error {
	buildServices = builder
	rootCmd.SetOut(stdout)
	defer func() {
		if closeServices == nil {
			return
		}
		if err := closeServices(); err != nil {
			logger.Warn("closing services: %v", err)
		}
		closeServices = nil
	}()
	return rootCmd.ExecuteContext(ctx)
}

func prepareServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationNoServices] == "true" || buildServices == nil {
		return nil
	}

	services, err := buildServices(cmd.Context(), configDir)
	if err != nil {
		return err
	}
	if services == nil {
		return errors.New("no services configured")
	}
	SetServices(services)
	return nil
}
