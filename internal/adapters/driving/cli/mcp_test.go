package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/adapters/driving/mcp"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	assert.Equal(t, "serve", mcpServeCmd.Use)
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_MissingServices(t *testing.T) {
	cleanup := setupServices(&Services{})
	defer cleanup()

	_, err := executeCommand(context.Background(), "mcp", "serve")

	require.Error(t, err)
	assert.ErrorIs(t, err, mcp.ErrMissingAnalyticsService)
}
