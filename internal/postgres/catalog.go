package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PriceBySKU reports the catalog price of sku. ok is false when the sku is
// not in the catalog.
func (s *Store) PriceBySKU(ctx context.Context, sku string) (price decimal.Decimal, ok bool, err error) {
	conn, err := s.acquire(ctx, "price by sku")
	if err != nil {
		return decimal.Zero, false, err
	}
	defer conn.Release()

	var raw string
	err = conn.QueryRow(ctx, `SELECT price::text FROM products WHERE sku = $1`, sku).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, lists.StoreErr("price by sku", err)
	}
	price, err = decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse price for %s: %w", sku, err)
	}
	return price, true, nil
}

func (s *Store) UpsertProduct(ctx context.Context, sku, name string, price decimal.Decimal) error {
	conn, err := s.acquire(ctx, "upsert product")
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
		INSERT INTO products (sku, name, price) VALUES ($1, $2, $3::text::numeric)
		ON CONFLICT (sku) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`,
		sku, name, price.StringFixed(2),
	)
	if err != nil {
		return lists.StoreErr("upsert product", err)
	}
	return nil
}
