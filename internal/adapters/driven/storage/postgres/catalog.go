package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

type catalogStore struct {
	pool *pgxpool.Pool
}

var _ driven.CatalogStore = (*catalogStore)(nil)

const productColumns = `id, name, brand, category_id, image_url, popularity_score, created_at, updated_at`

func (c *catalogStore) SaveProduct(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" {
		return domain.ErrInvalidInput
	}
	now := time.Now()
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := c.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category_id = EXCLUDED.category_id,
			image_url = EXCLUDED.image_url,
			popularity_score = EXCLUDED.popularity_score,
			updated_at = EXCLUDED.updated_at
	`, product.ID, product.Name, optString(product.Brand), product.CategoryID,
		optString(product.ImageURL), product.PopularityScore, createdAt, now)
	if err != nil {
		return fmt.Errorf("saving product: %w", err)
	}
	return nil
}

func (c *catalogStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (c *catalogStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		ORDER BY popularity_score DESC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (c *catalogStore) DeleteProduct(ctx context.Context, id string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return nil
}

func (c *catalogStore) IncrementPopularity(ctx context.Context, id string, delta int) (int, error) {
	var score int
	err := c.pool.QueryRow(ctx, `
		UPDATE products SET popularity_score = popularity_score + $1, updated_at = now()
		WHERE id = $2
		RETURNING popularity_score
	`, delta, id).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing popularity: %w", err)
	}
	return score, nil
}

func (c *catalogStore) SaveCategory(ctx context.Context, category *domain.Category) error {
	if category == nil || category.ID == "" || category.Name == "" {
		return domain.ErrInvalidInput
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO categories (id, name, display_name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, display_name = EXCLUDED.display_name
	`, category.ID, category.Name, category.DisplayName)
	if hasCode(err, codeUniqueViolation) {
		return fmt.Errorf("%w: category %s", domain.ErrAlreadyExists, category.Name)
	}
	if err != nil {
		return fmt.Errorf("saving category: %w", err)
	}
	return nil
}

func (c *catalogStore) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var cat domain.Category
	err := c.pool.QueryRow(ctx,
		`SELECT id, name, display_name FROM categories WHERE name = $1`, name,
	).Scan(&cat.ID, &cat.Name, &cat.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return &cat, nil
}

func (c *catalogStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, name, display_name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (c *catalogStore) SaveVendor(ctx context.Context, vendor *domain.Vendor) error {
	if vendor == nil || vendor.ID == "" {
		return domain.ErrInvalidInput
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO vendors (id, display_name, base_url, active) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			base_url = EXCLUDED.base_url,
			active = EXCLUDED.active
	`, vendor.ID, vendor.DisplayName, optString(vendor.BaseURL), vendor.Active)
	if err != nil {
		return fmt.Errorf("saving vendor: %w", err)
	}
	return nil
}

func (c *catalogStore) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, display_name, base_url, active FROM vendors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying vendors: %w", err)
	}
	defer rows.Close()

	var vendors []domain.Vendor
	for rows.Next() {
		var v domain.Vendor
		var baseURL *string
		if err := rows.Scan(&v.ID, &v.DisplayName, &baseURL, &v.Active); err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}
		v.BaseURL = derefString(baseURL)
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var brand, imageURL *string
	err := row.Scan(&p.ID, &p.Name, &brand, &p.CategoryID, &imageURL,
		&p.PopularityScore, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	p.Brand = derefString(brand)
	p.ImageURL = derefString(imageURL)
	return &p, nil
}
