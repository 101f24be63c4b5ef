package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driving"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

// Ensure PriceLedger implements the interface.
var _ driving.LedgerService = (*PriceLedger)(nil)

// PriceLedger applies observations to current prices and archives
// superseded values. Applies to the same product are serialised so the
// upsert and popularity increment never lose updates.
type PriceLedger struct {
	prices    driven.PriceStore
	history   driven.HistoryStore
	catalog   driven.CatalogStore
	publisher driven.PriceEventPublisher
	metrics   driven.MetricsRecorder

	cfgMu         sync.RWMutex
	materiality   decimal.Decimal
	retentionDays int
	windowDays    int

	locks *keyedMutex
	now   func() time.Time
}

// NewPriceLedger creates a ledger.
// publisher and metrics may be nil.
func NewPriceLedger(
	prices driven.PriceStore,
	history driven.HistoryStore,
	catalog driven.CatalogStore,
	settings domain.PipelineSettings,
	publisher driven.PriceEventPublisher,
	metrics driven.MetricsRecorder,
) *PriceLedger {
	return &PriceLedger{
		prices:        prices,
		history:       history,
		catalog:       catalog,
		publisher:     publisher,
		metrics:       metrics,
		materiality:   settings.MaterialityThreshold,
		retentionDays: settings.HistoryRetentionDays,
		windowDays:    settings.HistoryWindowDays,
		locks:         newKeyedMutex(),
		now:           time.Now,
	}
}

// Reconfigure replaces the thresholds used by later applies.
func (l *PriceLedger) Reconfigure(settings domain.PipelineSettings) {
	l.cfgMu.Lock()
	defer l.cfgMu.Unlock()
	l.materiality = settings.MaterialityThreshold
	l.retentionDays = settings.HistoryRetentionDays
	l.windowDays = settings.HistoryWindowDays
}

type ledgerPolicy struct {
	materiality   decimal.Decimal
	retentionDays int
	windowDays    int
}

func (l *PriceLedger) policy() ledgerPolicy {
	l.cfgMu.RLock()
	defer l.cfgMu.RUnlock()
	return ledgerPolicy{materiality: l.materiality, retentionDays: l.retentionDays, windowDays: l.windowDays}
}

// Apply writes an observation as the current price of product at vendorID.
// Invalid observations return a Rejected result and write nothing.
// A returned error is a persistence failure for this pair only.
func (l *PriceLedger) Apply(
	ctx context.Context,
	product *domain.Product,
	vendorID string,
	obs domain.Observation,
) (domain.PriceUpdateResult, error) {
	if product == nil {
		return rejected("no product"), nil
	}
	if vendorID == "" {
		return rejected("no vendor"), nil
	}
	if err := obs.Validate(); err != nil {
		return rejected(err.Error()), nil
	}

	unlock := l.locks.Lock(product.ID)
	defer unlock()

	existing, err := l.prices.GetPrice(ctx, product.ID, vendorID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.PriceUpdateResult{}, fmt.Errorf("get price: %w", err)
	}

	now := l.now()
	result := domain.PriceUpdateResult{}
	var price *domain.Price

	if existing == nil {
		price = &domain.Price{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			VendorID:  vendorID,
			CreatedAt: now,
		}
		result.Outcome = domain.UpdateOutcomeInserted
	} else {
		price = existing
		result.Outcome = domain.UpdateOutcomeUpdated
		if domain.MaterialChange(existing.Price, obs.Price, l.policy().materiality) {
			entry := existing.Snapshot()
			entry.ID = uuid.New().String()
			result.Archived = &entry
		}
	}

	price.Price = obs.Price
	price.OriginalPrice = obs.OriginalPrice
	price.DiscountPercentage = domain.DiscountPercentage(obs.Price, obs.OriginalPrice)
	price.StockStatus = obs.Status()
	price.ProductURL = obs.ProductURL
	price.VariationDetails = obs.VariationDetails
	price.LastUpdated = now

	// The archive row and the new price are written together so a failed
	// save never leaves history for a price that is still current.
	if err := l.prices.ReplacePrice(ctx, price, result.Archived); err != nil {
		return domain.PriceUpdateResult{}, fmt.Errorf("save price: %w", err)
	}
	result.Price = price

	if err := l.touchProduct(ctx, product, obs, now); err != nil {
		return result, err
	}

	if result.Archived != nil {
		l.publish(ctx, product, result.Archived, price)
	}
	if l.metrics != nil {
		l.metrics.ObservationApplied(vendorID, result.Outcome)
	}
	return result, nil
}

// touchProduct bumps popularity and backfills a missing image.
func (l *PriceLedger) touchProduct(ctx context.Context, product *domain.Product, obs domain.Observation, now time.Time) error {
	score, err := l.catalog.IncrementPopularity(ctx, product.ID, 1)
	if err != nil {
		return fmt.Errorf("increment popularity: %w", err)
	}
	product.PopularityScore = score

	if product.ImageURL == "" && obs.ImageURL != "" {
		current, err := l.catalog.GetProduct(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if current.ImageURL == "" {
			current.ImageURL = obs.ImageURL
			current.UpdatedAt = now
			if err := l.catalog.SaveProduct(ctx, current); err != nil {
				return fmt.Errorf("backfill image: %w", err)
			}
		}
		product.ImageURL = current.ImageURL
	}
	return nil
}

func (l *PriceLedger) publish(ctx context.Context, product *domain.Product, old *domain.PriceHistory, price *domain.Price) {
	if l.publisher == nil {
		return
	}
	event := domain.PriceChangeEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		VendorID:    price.VendorID,
		OldPrice:    old.Price.StringFixed(2),
		NewPrice:    price.Price.StringFixed(2),
		StockStatus: string(price.StockStatus),
		ChangedAt:   price.LastUpdated.UTC().Format(time.RFC3339),
	}
	if price.DiscountPercentage != nil {
		d := price.DiscountPercentage.StringFixed(2)
		event.Discount = &d
	}
	if err := l.publisher.PublishPriceChange(ctx, event); err != nil {
		logger.Warn("publish price change for %s at %s: %v", product.ID, price.VendorID, err)
	}
}

// History returns archived prices for a product within the last days,
// newest first. A non-positive days uses the ledger's default window.
func (l *PriceLedger) History(ctx context.Context, productID, vendorID string, days int) ([]domain.PriceHistory, error) {
	if days <= 0 {
		days = l.policy().windowDays
	}
	return l.history.ListHistory(ctx, driven.HistoryFilter{
		ProductID: productID,
		VendorID:  vendorID,
		Since:     l.now().AddDate(0, 0, -days),
	})
}

// PruneHistory deletes history older than the retention period.
func (l *PriceLedger) PruneHistory(ctx context.Context) (int, error) {
	cutoff := l.now().AddDate(0, 0, -l.policy().retentionDays)
	n, err := l.history.PruneHistory(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	logger.Info("pruned %d history entries older than %s", n, cutoff.Format(time.RFC3339))
	return n, nil
}

func rejected(reason string) domain.PriceUpdateResult {
	return domain.PriceUpdateResult{Outcome: domain.UpdateOutcomeRejected, Reason: reason}
}
