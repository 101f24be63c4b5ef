package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for PricePilot resources.
	uriScheme = "pricepilot://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "products",
		Name:        "products",
		Description: "Catalog products, most popular first",
		MIMEType:    "application/json",
	}, s.handleProductsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "vendors",
		Name:        "vendors",
		Description: "Known vendors",
		MIMEType:    "application/json",
	}, s.handleVendorsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "products/{productId}",
		Name:        "product-analysis",
		Description: "Prices, deals and trends for a specific product",
		MIMEType:    "application/json",
	}, s.handleProductResource)
}

// handleProductsResource lists catalog products.
func (s *Server) handleProductsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	products, err := s.ports.Catalog.ListProducts(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	infos := make([]ProductOutput, len(products))
	for i, p := range products {
		infos[i] = toProductOutput(p)
	}
	return jsonResource(req.Params.URI, infos)
}

// handleVendorsResource lists vendors.
func (s *Server) handleVendorsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	vendors, err := s.ports.Catalog.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing vendors: %w", err)
	}
	return jsonResource(req.Params.URI, vendors)
}

// handleProductResource returns the analysis of one product.
func (s *Server) handleProductResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract productId from URI: pricepilot://products/{productId}
	productID := extractProductID(req.Params.URI)
	if productID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	analysis, err := s.ports.Analytics.AnalyzeProduct(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("analysing product: %w", err)
	}
	return jsonResource(req.Params.URI, toAnalysisOutput(analysis))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProductID extracts the product ID from a URI like pricepilot://products/{productId}.
func extractProductID(uri string) string {
	const prefix = uriScheme + "products/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
