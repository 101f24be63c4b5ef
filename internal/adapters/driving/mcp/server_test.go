package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing analytics returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Catalog: &mockCatalogReader{}})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnalyticsService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Analytics: &mockAnalyticsService{},
			Catalog:   &mockCatalogReader{},
			Ledger:    &mockLedgerService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil analytics returns error", func(t *testing.T) {
		ports := &Ports{Catalog: &mockCatalogReader{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingAnalyticsService)
	})

	t.Run("nil catalog returns error", func(t *testing.T) {
		ports := &Ports{Analytics: &mockAnalyticsService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingCatalogReader)
	})

	t.Run("ledger is optional", func(t *testing.T) {
		ports := &Ports{Analytics: &mockAnalyticsService{}, Catalog: &mockCatalogReader{}}
		assert.NoError(t, ports.Validate())
	})
}
