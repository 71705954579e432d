package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/shopspring/decimal"
)

// PriceBySKU reports the catalog price of sku. Prices are stored as
// fixed-point text.
func (s *Store) PriceBySKU(ctx context.Context, sku string) (decimal.Decimal, bool, error) {
	c, err := s.conn(ctx, "price by sku")
	if err != nil {
		return decimal.Zero, false, err
	}
	defer c.Close()

	var raw string
	err = c.QueryRowContext(ctx, `SELECT price FROM products WHERE sku = ?`, sku).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, lists.StoreErr("price by sku", err)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse price for %s: %w", sku, err)
	}
	return price, true, nil
}

func (s *Store) UpsertProduct(ctx context.Context, sku, name string, price decimal.Decimal) error {
	c, err := s.conn(ctx, "upsert product")
	if err != nil {
		return err
	}
	defer c.Close()

	_, err = c.ExecContext(ctx, `
		INSERT INTO products (sku, name, price) VALUES (?, ?, ?)
		ON CONFLICT (sku) DO UPDATE SET name = excluded.name, price = excluded.price`,
		sku, name, price.StringFixed(2),
	)
	if err != nil {
		return lists.StoreErr("upsert product", err)
	}
	return nil
}
