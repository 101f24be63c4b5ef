package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

// priceStore implements driven.PriceStore.
type priceStore struct {
	store *Store
}

var _ driven.PriceStore = (*priceStore)(nil)

const priceColumns = `id, product_id, vendor_id, price, original_price, discount_percentage,
	stock_status, product_url, variation_details, last_updated, created_at`

// GetPrice retrieves the price for a (product, vendor) pair.
func (p *priceStore) GetPrice(ctx context.Context, productID, vendorID string) (*domain.Price, error) {
	row := p.store.db.QueryRowContext(ctx,
		`SELECT `+priceColumns+` FROM prices WHERE product_id = ? AND vendor_id = ?`,
		productID, vendorID)
	return scanPrice(row)
}

// SavePrice creates or replaces the price for its (product, vendor) pair.
// The first stored ID and created_at of a pair are kept.
func (p *priceStore) SavePrice(ctx context.Context, price *domain.Price) error {
	return savePrice(ctx, p.store.db, price)
}

// ReplacePrice archives the superseded price and saves the new one in a
// single transaction.
func (p *priceStore) ReplacePrice(ctx context.Context, price *domain.Price, archived *domain.PriceHistory) error {
	if archived == nil {
		return p.SavePrice(ctx, price)
	}

	tx, err := p.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning price replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := appendHistory(ctx, tx, archived); err != nil {
		return err
	}
	if err := savePrice(ctx, tx, price); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing price replace: %w", err)
	}
	return nil
}

func savePrice(ctx context.Context, db execer, price *domain.Price) error {
	if price == nil || price.ID == "" || price.ProductID == "" || price.VendorID == "" {
		return domain.ErrInvalidInput
	}

	details, err := marshalDetails(price.VariationDetails)
	if err != nil {
		return err
	}
	createdAt := price.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO prices (`+priceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, vendor_id) DO UPDATE SET
			price = excluded.price,
			original_price = excluded.original_price,
			discount_percentage = excluded.discount_percentage,
			stock_status = excluded.stock_status,
			product_url = excluded.product_url,
			variation_details = excluded.variation_details,
			last_updated = excluded.last_updated
	`, price.ID, price.ProductID, price.VendorID, price.Price.String(),
		nullDecimal(price.OriginalPrice), nullDecimal(price.DiscountPercentage),
		string(price.StockStatus), nullString(price.ProductURL), details,
		formatTime(price.LastUpdated), formatTime(createdAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %s", domain.ErrNotFound, price.ProductID)
		}
		return fmt.Errorf("saving price: %w", err)
	}
	return nil
}

// ListPrices returns prices matching the filter ordered by price ascending.
func (p *priceStore) ListPrices(ctx context.Context, filter driven.PriceFilter) ([]domain.Price, error) {
	var where []string
	var args []any
	if filter.ProductID != "" {
		where = append(where, "pr.product_id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.VendorID != "" {
		where = append(where, "pr.vendor_id = ?")
		args = append(args, filter.VendorID)
	}
	if filter.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.InStockOnly {
		where = append(where, "pr.stock_status = ?")
		args = append(args, string(domain.StockInStock))
	}
	if !filter.UpdatedSince.IsZero() {
		where = append(where, "pr.last_updated >= ?")
		args = append(args, formatTime(filter.UpdatedSince))
	}

	query := `SELECT pr.id, pr.product_id, pr.vendor_id, pr.price, pr.original_price,
		pr.discount_percentage, pr.stock_status, pr.product_url, pr.variation_details,
		pr.last_updated, pr.created_at
		FROM prices pr JOIN products p ON p.id = pr.product_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY CAST(pr.price AS REAL) ASC, pr.vendor_id ASC"

	rows, err := p.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying prices: %w", err)
	}
	defer rows.Close()

	var prices []domain.Price //nolint:prealloc // size unknown from query
	for rows.Next() {
		price, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, *price)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prices: %w", err)
	}
	return prices, nil
}

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

const historyColumns = `id, price_id, product_id, vendor_id, price, original_price, discount_percentage,
	stock_status, product_url, variation_details, recorded_at`

// AppendHistory records a superseded price.
func (h *historyStore) AppendHistory(ctx context.Context, entry *domain.PriceHistory) error {
	return appendHistory(ctx, h.store.db, entry)
}

func appendHistory(ctx context.Context, db execer, entry *domain.PriceHistory) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}

	details, err := marshalDetails(entry.VariationDetails)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO price_history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, nullString(entry.PriceID), entry.ProductID, entry.VendorID,
		entry.Price.String(), nullDecimal(entry.OriginalPrice), nullDecimal(entry.DiscountPercentage),
		string(entry.StockStatus), nullString(entry.ProductURL), details,
		formatTime(entry.RecordedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %s", domain.ErrNotFound, entry.ProductID)
		}
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// ListHistory returns entries matching the filter, newest first.
func (h *historyStore) ListHistory(ctx context.Context, filter driven.HistoryFilter) ([]domain.PriceHistory, error) {
	var where []string
	var args []any
	if filter.ProductID != "" {
		where = append(where, "product_id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.VendorID != "" {
		where = append(where, "vendor_id = ?")
		args = append(args, filter.VendorID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, formatTime(filter.Since))
	}

	query := `SELECT ` + historyColumns + ` FROM price_history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at DESC, rowid ASC"

	rows, err := h.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PriceHistory //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes entries recorded before the cutoff.
func (h *historyStore) PruneHistory(ctx context.Context, before time.Time) (int, error) {
	res, err := h.store.db.ExecContext(ctx,
		"DELETE FROM price_history WHERE recorded_at < ?", formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned history: %w", err)
	}
	return int(n), nil
}

// scanPrice scans a price row.
func scanPrice(row scanner) (*domain.Price, error) {
	var p domain.Price
	var amount, stock, lastUpdated, createdAt string
	var original, discount, productURL, details sql.NullString

	if err := row.Scan(&p.ID, &p.ProductID, &p.VendorID, &amount, &original, &discount,
		&stock, &productURL, &details, &lastUpdated, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning price: %w", err)
	}

	var err error
	if p.Price, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", amount, err)
	}
	if p.OriginalPrice, err = parseNullableDecimal(original); err != nil {
		return nil, err
	}
	if p.DiscountPercentage, err = parseNullableDecimal(discount); err != nil {
		return nil, err
	}
	if p.VariationDetails, err = unmarshalDetails(details); err != nil {
		return nil, err
	}
	if p.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	p.StockStatus = domain.StockStatus(stock)
	p.ProductURL = productURL.String
	return &p, nil
}

// scanHistory scans a price history row.
func scanHistory(row scanner) (*domain.PriceHistory, error) {
	var h domain.PriceHistory
	var amount, stock, recordedAt string
	var priceID, original, discount, productURL, details sql.NullString

	if err := row.Scan(&h.ID, &priceID, &h.ProductID, &h.VendorID, &amount, &original, &discount,
		&stock, &productURL, &details, &recordedAt); err != nil {
		return nil, fmt.Errorf("scanning history: %w", err)
	}

	var err error
	if h.Price, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", amount, err)
	}
	if h.OriginalPrice, err = parseNullableDecimal(original); err != nil {
		return nil, err
	}
	if h.DiscountPercentage, err = parseNullableDecimal(discount); err != nil {
		return nil, err
	}
	if h.VariationDetails, err = unmarshalDetails(details); err != nil {
		return nil, err
	}
	if h.RecordedAt, err = parseTime(recordedAt); err != nil {
		return nil, err
	}
	h.PriceID = priceID.String
	h.StockStatus = domain.StockStatus(stock)
	h.ProductURL = productURL.String
	return &h, nil
}
