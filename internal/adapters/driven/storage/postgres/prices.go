package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
)

type priceStore struct {
	pool *pgxpool.Pool
}

var _ driven.PriceStore = (*priceStore)(nil)

// Money columns are read as text so no precision is lost to float64.
const priceSelect = `SELECT pr.id, pr.product_id, pr.vendor_id, pr.price::text, pr.original_price::text,
	pr.discount_percentage::text, pr.stock_status, pr.product_url, pr.variation_details,
	pr.last_updated, pr.created_at
	FROM prices pr`

func (p *priceStore) GetPrice(ctx context.Context, productID, vendorID string) (*domain.Price, error) {
	row := p.pool.QueryRow(ctx, priceSelect+` WHERE pr.product_id = $1 AND pr.vendor_id = $2`,
		productID, vendorID)
	return scanPrice(row)
}

func (p *priceStore) SavePrice(ctx context.Context, price *domain.Price) error {
	return savePrice(ctx, p.pool, price)
}

// ReplacePrice archives the superseded price and saves the new one in a
// single transaction.
func (p *priceStore) ReplacePrice(ctx context.Context, price *domain.Price, archived *domain.PriceHistory) error {
	if archived == nil {
		return p.SavePrice(ctx, price)
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := appendHistory(ctx, tx, archived); err != nil {
			return err
		}
		return savePrice(ctx, tx, price)
	})
}

func savePrice(ctx context.Context, db execer, price *domain.Price) error {
	if price == nil || price.ID == "" || price.ProductID == "" || price.VendorID == "" {
		return domain.ErrInvalidInput
	}
	details, err := encodeDetails(price.VariationDetails)
	if err != nil {
		return err
	}
	createdAt := price.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = db.Exec(ctx, `
		INSERT INTO prices (id, product_id, vendor_id, price, original_price, discount_percentage,
			stock_status, product_url, variation_details, last_updated, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9::jsonb, $10, $11)
		ON CONFLICT (product_id, vendor_id) DO UPDATE SET
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			discount_percentage = EXCLUDED.discount_percentage,
			stock_status = EXCLUDED.stock_status,
			product_url = EXCLUDED.product_url,
			variation_details = EXCLUDED.variation_details,
			last_updated = EXCLUDED.last_updated
	`, price.ID, price.ProductID, price.VendorID, price.Price.String(),
		optAmount(price.OriginalPrice), optAmount(price.DiscountPercentage),
		string(price.StockStatus), optString(price.ProductURL), details,
		price.LastUpdated, createdAt)
	if hasCode(err, codeForeignKeyViolation) {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, price.ProductID)
	}
	if err != nil {
		return fmt.Errorf("saving price: %w", err)
	}
	return nil
}

func (p *priceStore) ListPrices(ctx context.Context, filter driven.PriceFilter) ([]domain.Price, error) {
	var w where
	if filter.ProductID != "" {
		w.add("pr.product_id = $%d", filter.ProductID)
	}
	if filter.VendorID != "" {
		w.add("pr.vendor_id = $%d", filter.VendorID)
	}
	if filter.CategoryID != "" {
		w.add("p.category_id = $%d", filter.CategoryID)
	}
	if filter.InStockOnly {
		w.add("pr.stock_status = $%d", string(domain.StockInStock))
	}
	if !filter.UpdatedSince.IsZero() {
		w.add("pr.last_updated >= $%d", filter.UpdatedSince)
	}

	query := priceSelect + ` JOIN products p ON p.id = pr.product_id` + w.String() +
		` ORDER BY pr.price ASC, pr.vendor_id ASC`
	rows, err := p.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying prices: %w", err)
	}
	defer rows.Close()

	var prices []domain.Price
	for rows.Next() {
		price, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, *price)
	}
	return prices, rows.Err()
}

type historyStore struct {
	pool *pgxpool.Pool
}

var _ driven.HistoryStore = (*historyStore)(nil)

func (h *historyStore) AppendHistory(ctx context.Context, entry *domain.PriceHistory) error {
	return appendHistory(ctx, h.pool, entry)
}

func appendHistory(ctx context.Context, db execer, entry *domain.PriceHistory) error {
	if entry == nil || entry.ID == "" {
		return domain.ErrInvalidInput
	}
	details, err := encodeDetails(entry.VariationDetails)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, `
		INSERT INTO price_history (id, price_id, product_id, vendor_id, price, original_price,
			discount_percentage, stock_status, product_url, variation_details, recorded_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8, $9, $10::jsonb, $11)
	`, entry.ID, optString(entry.PriceID), entry.ProductID, entry.VendorID, entry.Price.String(),
		optAmount(entry.OriginalPrice), optAmount(entry.DiscountPercentage),
		string(entry.StockStatus), optString(entry.ProductURL), details, entry.RecordedAt)
	if hasCode(err, codeForeignKeyViolation) {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, entry.ProductID)
	}
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

func (h *historyStore) ListHistory(ctx context.Context, filter driven.HistoryFilter) ([]domain.PriceHistory, error) {
	var w where
	if filter.ProductID != "" {
		w.add("product_id = $%d", filter.ProductID)
	}
	if filter.VendorID != "" {
		w.add("vendor_id = $%d", filter.VendorID)
	}
	if !filter.Since.IsZero() {
		w.add("recorded_at >= $%d", filter.Since)
	}

	rows, err := h.pool.Query(ctx, `
		SELECT id, price_id, product_id, vendor_id, price::text, original_price::text,
			discount_percentage::text, stock_status, product_url, variation_details, recorded_at
		FROM price_history`+w.String()+`
		ORDER BY recorded_at DESC, seq ASC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []domain.PriceHistory
	for rows.Next() {
		var e domain.PriceHistory
		var priceID, productURL, original, discount *string
		var amount, stock string
		var details []byte
		if err := rows.Scan(&e.ID, &priceID, &e.ProductID, &e.VendorID, &amount, &original,
			&discount, &stock, &productURL, &details, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		if e.Price, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing price %q: %w", amount, err)
		}
		if e.OriginalPrice, err = parseAmount(original); err != nil {
			return nil, err
		}
		if e.DiscountPercentage, err = parseAmount(discount); err != nil {
			return nil, err
		}
		if e.VariationDetails, err = decodeDetails(details); err != nil {
			return nil, err
		}
		e.PriceID = derefString(priceID)
		e.ProductURL = derefString(productURL)
		e.StockStatus = domain.StockStatus(stock)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (h *historyStore) PruneHistory(ctx context.Context, before time.Time) (int, error) {
	tag, err := h.pool.Exec(ctx, `DELETE FROM price_history WHERE recorded_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanPrice(row pgx.Row) (*domain.Price, error) {
	var p domain.Price
	var amount, stock string
	var original, discount, productURL *string
	var details []byte

	err := row.Scan(&p.ID, &p.ProductID, &p.VendorID, &amount, &original, &discount,
		&stock, &productURL, &details, &p.LastUpdated, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning price: %w", err)
	}

	if p.Price, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", amount, err)
	}
	if p.OriginalPrice, err = parseAmount(original); err != nil {
		return nil, err
	}
	if p.DiscountPercentage, err = parseAmount(discount); err != nil {
		return nil, err
	}
	if p.VariationDetails, err = decodeDetails(details); err != nil {
		return nil, err
	}
	p.StockStatus = domain.StockStatus(stock)
	p.ProductURL = derefString(productURL)
	return &p, nil
}
