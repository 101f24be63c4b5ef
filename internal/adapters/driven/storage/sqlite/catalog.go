package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// catalogStore implements driven.CatalogStore.
type catalogStore struct {
	store *Store
}

var _ driven.CatalogStore = (*catalogStore)(nil)

const productColumns = `id, name, brand, category_id, image_url, popularity_score, created_at, updated_at`

// SaveProduct creates or updates a product.
// The creation time of an existing product is preserved.
func (c *catalogStore) SaveProduct(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now()
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	var categoryID any
	if product.CategoryID != nil {
		categoryID = *product.CategoryID
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			brand = excluded.brand,
			category_id = excluded.category_id,
			image_url = excluded.image_url,
			popularity_score = excluded.popularity_score,
			updated_at = excluded.updated_at
	`, product.ID, product.Name, nullString(product.Brand), categoryID,
		nullString(product.ImageURL), product.PopularityScore,
		formatTime(createdAt), formatTime(now))
	if err != nil {
		return fmt.Errorf("saving product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (c *catalogStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := c.store.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

// ListProducts returns every product, most popular first, then oldest first.
func (c *catalogStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products
		ORDER BY popularity_score DESC, created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// DeleteProduct removes a product. Prices and history cascade.
func (c *catalogStore) DeleteProduct(ctx context.Context, id string) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return nil
}

// IncrementPopularity atomically adds delta to a product's popularity.
func (c *catalogStore) IncrementPopularity(ctx context.Context, id string, delta int) (int, error) {
	var score int
	err := c.store.db.QueryRowContext(ctx, `
		UPDATE products
		SET popularity_score = popularity_score + ?, updated_at = ?
		WHERE id = ?
		RETURNING popularity_score
	`, delta, formatTime(time.Now()), id).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing popularity: %w", err)
	}
	return score, nil
}

// SaveCategory creates or updates a category.
func (c *catalogStore) SaveCategory(ctx context.Context, category *domain.Category) error {
	if category == nil || category.ID == "" || category.Name == "" {
		return domain.ErrInvalidInput
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, display_name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			display_name = excluded.display_name
	`, category.ID, category.Name, category.DisplayName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %s", domain.ErrAlreadyExists, category.Name)
		}
		return fmt.Errorf("saving category: %w", err)
	}
	return nil
}

// GetCategoryByName retrieves a category by its slug.
func (c *catalogStore) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var cat domain.Category
	err := c.store.db.QueryRowContext(ctx,
		"SELECT id, name, display_name FROM categories WHERE name = ?", name,
	).Scan(&cat.ID, &cat.Name, &cat.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return &cat, nil
}

// ListCategories returns all categories ordered by name.
func (c *catalogStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT id, name, display_name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category //nolint:prealloc // size unknown from query
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}

// SaveVendor creates or updates a vendor.
func (c *catalogStore) SaveVendor(ctx context.Context, vendor *domain.Vendor) error {
	if vendor == nil || vendor.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO vendors (id, display_name, base_url, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			base_url = excluded.base_url,
			active = excluded.active
	`, vendor.ID, vendor.DisplayName, nullString(vendor.BaseURL), boolToInt(vendor.Active))
	if err != nil {
		return fmt.Errorf("saving vendor: %w", err)
	}
	return nil
}

// ListVendors returns all vendors ordered by ID.
func (c *catalogStore) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	rows, err := c.store.db.QueryContext(ctx,
		"SELECT id, display_name, base_url, active FROM vendors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying vendors: %w", err)
	}
	defer rows.Close()

	var vendors []domain.Vendor //nolint:prealloc // size unknown from query
	for rows.Next() {
		var v domain.Vendor
		var baseURL sql.NullString
		var active int
		if err := rows.Scan(&v.ID, &v.DisplayName, &baseURL, &active); err != nil {
			return nil, fmt.Errorf("scanning vendor: %w", err)
		}
		v.BaseURL = baseURL.String
		v.Active = active == 1
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vendors: %w", err)
	}
	return vendors, nil
}

// scanProduct scans a product row.
func scanProduct(row scanner) (*domain.Product, error) {
	var p domain.Product
	var brand, categoryID, imageURL sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&p.ID, &p.Name, &brand, &categoryID, &imageURL,
		&p.PopularityScore, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}

	p.Brand = brand.String
	p.ImageURL = imageURL.String
	if categoryID.Valid {
		id := categoryID.String
		p.CategoryID = &id
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is a SQLite foreign key failure.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
