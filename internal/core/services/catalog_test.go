package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func TestSeedCategories_Idempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, SeedCategories(ctx, store.CatalogStore()))
	require.NoError(t, SeedCategories(ctx, store.CatalogStore()))

	categories, err := store.CatalogStore().ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(domain.DefaultCategories()))
}

func TestCatalogService(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()
	catalog := store.CatalogStore()
	svc := NewCatalogService(catalog, store.RunStore())

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"JBL Charge 5", "Dell XPS 13", "AirPods Pro"} {
		require.NoError(t, catalog.SaveProduct(ctx, &domain.Product{
			ID:              string(rune('a' + i)),
			Name:            name,
			PopularityScore: i,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, catalog.SaveVendor(ctx, &domain.Vendor{ID: "amazon", DisplayName: "Amazon", Active: true}))

	products, err := svc.ListProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "AirPods Pro", products[0].Name)

	all, err := svc.ListProducts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	product, err := svc.GetProduct(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Dell XPS 13", product.Name)

	_, err = svc.GetProduct(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.GetProduct(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	vendors, err := svc.ListVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 1)

	for i, vendor := range []string{"amazon", "walmart", "amazon"} {
		run := domain.NewScraperRun(string(rune('r'+i)), vendor)
		run.Start(base.Add(time.Duration(i) * time.Minute))
		require.NoError(t, store.RunStore().SaveRun(ctx, run))
	}
	runs, err := svc.ListRuns(ctx, "amazon", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	latest, err := svc.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "amazon", latest[0].VendorID)
}
