package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func writeFixture(t *testing.T, dir, vendor, query, body string) {
	t.Helper()
	vendorDir := filepath.Join(dir, vendor)
	require.NoError(t, os.MkdirAll(vendorDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(vendorDir, Slug(query)+".json"), []byte(body), 0644))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Sony WH-1000XM4":   "sony-wh-1000xm4",
		"MacBook Pro":       "macbook-pro",
		"  Dell XPS 13  ":   "dell-xps-13",
		"Bose QC/45 (2021)": "bose-qc-45-2021",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(domain.VendorConfig{FixtureDir: "/tmp"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(domain.VendorConfig{ID: "amazon"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSource_Search(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "amazon", "Sony WH-1000XM4",
		`[{"name": "Sony WH-1000XM4 Wireless", "price": 248.00, "original_price": 349.99, "product_url": "https://amazon.test/xm4"}]`)
	src, err := New(domain.VendorConfig{ID: "amazon", FixtureDir: dir})
	require.NoError(t, err)

	obs, err := src.Search(context.Background(), "Sony WH-1000XM4")

	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "amazon", obs[0].VendorID)
	assert.Equal(t, "248", obs[0].Price.String())
}

func TestSource_Search_MissingFileIsEmpty(t *testing.T) {
	src, err := New(domain.VendorConfig{ID: "amazon", FixtureDir: t.TempDir()})
	require.NoError(t, err)

	obs, err := src.Search(context.Background(), "Nothing Here")

	require.NoError(t, err)
	assert.NotNil(t, obs)
	assert.Empty(t, obs)
}

func TestSource_Search_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "walmart", "iPad Pro", `{"results": [`)
	src, err := New(domain.VendorConfig{ID: "walmart", FixtureDir: dir})
	require.NoError(t, err)

	_, err = src.Search(context.Background(), "iPad Pro")

	assert.ErrorIs(t, err, domain.ErrVendorRejected)
}

func TestSource_Search_Cancelled(t *testing.T) {
	src, err := New(domain.VendorConfig{ID: "amazon", FixtureDir: t.TempDir()})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Search(ctx, "iPad Pro")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Close(t *testing.T) {
	src, err := New(domain.VendorConfig{ID: "amazon", FixtureDir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, src.Close())

	_, err = src.Search(context.Background(), "iPad Pro")
	assert.ErrorIs(t, err, domain.ErrSourceClosed)
}

func TestSource_Path(t *testing.T) {
	src, err := New(domain.VendorConfig{ID: "bestbuy", FixtureDir: "/srv/fixtures"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/fixtures", "bestbuy", "macbook-pro.json"), src.Path("MacBook Pro"))
}
