package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
)

const defaultAcquireTimeout = 30 * time.Second

// Store is the SQLite implementation of lists.Store.
type Store struct {
	db             *sql.DB
	clock          clock.Clock
	acquireTimeout time.Duration
}

func NewStore(db *sql.DB, clk clock.Clock, acquireTimeout time.Duration) *Store {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &Store{db: db, clock: clk, acquireTimeout: acquireTimeout}
}

var _ lists.Store = (*Store)(nil)

// conn waits at most acquireTimeout for the pooled connection. Every
// operation runs on exactly one connection so the pool limit holds.
func (s *Store) conn(ctx context.Context, op string) (*sql.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	c, err := s.db.Conn(actx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, lists.ErrResourceExhausted
		}
		return nil, lists.StoreErr(op, err)
	}
	return c, nil
}

const listColumns = `id, title, shop_id, status, created_at, completed_at, completed_by`

const itemColumns = `id, sku, name, qty_requested, qty_collected, status, version`

const visible = `(? = '' OR shop_id = ? OR shop_id IS NULL)`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) CreateList(ctx context.Context, title, shopID string, items []lists.NewItem) (*lists.List, error) {
	if err := lists.ValidateNewList(title, items); err != nil {
		return nil, err
	}
	c, err := s.conn(ctx, "create list")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return nil, lists.StoreErr("create list", err)
	}
	defer func() { _ = tx.Rollback() }()

	l := &lists.List{
		ID:        lists.NewListID(),
		Title:     title,
		ShopID:    lists.StrPtr(shopID),
		Status:    lists.StatusActive,
		CreatedAt: s.clock.Now(),
		Items:     make([]lists.Item, 0, len(items)),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO lists (id, title, shop_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.Title, nullString(l.ShopID), string(l.Status), l.CreatedAt.UnixNano(),
	); err != nil {
		return nil, lists.StoreErr("create list", err)
	}

	if len(items) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO list_items (list_id, id, position, sku, name, qty_requested, status, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)`)
		if err != nil {
			return nil, lists.StoreErr("create list items", err)
		}
		defer stmt.Close()
		for i, in := range items {
			it := lists.Item{ID: in.ID, SKU: in.SKU, Name: in.Name, QtyRequested: in.Qty, Status: in.Status, Version: 1}
			if it.ID == "" {
				it.ID = lists.NewItemID()
			}
			if _, err := stmt.ExecContext(ctx, l.ID, it.ID, i, nullString(it.SKU), it.Name, it.QtyRequested, string(it.Status)); err != nil {
				return nil, lists.StoreErr("create list items", err)
			}
			l.Items = append(l.Items, it)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, lists.StoreErr("create list", err)
	}
	return l, nil
}

func (s *Store) GetList(ctx context.Context, listID, shopID string) (*lists.List, error) {
	c, err := s.conn(ctx, "get list")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	l, err := scanList(c.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE id = ? AND `+visible, listID, shopID, shopID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("get list", err)
	}

	rows, err := c.QueryContext(ctx, `SELECT `+itemColumns+` FROM list_items WHERE list_id = ? ORDER BY position`, listID)
	if err != nil {
		return nil, lists.StoreErr("get list items", err)
	}
	l.Items, err = collectItems(rows)
	if err != nil {
		return nil, lists.StoreErr("get list items", err)
	}
	return l, nil
}

func (s *Store) ListLists(ctx context.Context, shopID string) ([]lists.List, error) {
	c, err := s.conn(ctx, "list lists")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	rows, err := c.QueryContext(ctx, `
		SELECT `+listColumns+` FROM lists
		WHERE `+visible+`
		ORDER BY created_at DESC, rowid DESC`, shopID, shopID)
	if err != nil {
		return nil, lists.StoreErr("list lists", err)
	}
	out := []lists.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			rows.Close()
			return nil, lists.StoreErr("list lists", err)
		}
		l.Items = []lists.Item{}
		out = append(out, *l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, lists.StoreErr("list lists", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(out))
	index := make(map[string]int, len(out))
	for i, l := range out {
		args = append(args, l.ID)
		index[l.ID] = i
	}
	params := strings.TrimSuffix(strings.Repeat("?,", len(out)), ",")
	irows, err := c.QueryContext(ctx, `
		SELECT list_id, `+itemColumns+` FROM list_items
		WHERE list_id IN (`+params+`) ORDER BY list_id, position`, args...)
	if err != nil {
		return nil, lists.StoreErr("list lists items", err)
	}
	defer irows.Close()
	for irows.Next() {
		var listID string
		var it lists.Item
		var status string
		if err := irows.Scan(&listID, &it.ID, &it.SKU, &it.Name, &it.QtyRequested, &it.QtyCollected, &status, &it.Version); err != nil {
			return nil, lists.StoreErr("list lists items", err)
		}
		it.Status = lists.ItemStatus(status)
		i := index[listID]
		out[i].Items = append(out[i].Items, it)
	}
	if err := irows.Err(); err != nil {
		return nil, lists.StoreErr("list lists items", err)
	}
	return out, nil
}

func (s *Store) UpdateItem(ctx context.Context, listID, itemID string, status lists.ItemStatus, qtyCollected *int) (*lists.Item, error) {
	c, err := s.conn(ctx, "update item")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	defer func() { _ = tx.Rollback() }()

	var listStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM lists WHERE id = ?`, listID).Scan(&listStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	if lists.Status(listStatus) != lists.StatusActive {
		return nil, lists.ErrListCompleted
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE list_items
		SET status = ?,
		    qty_collected = COALESCE(?, qty_collected),
		    version = version + 1
		WHERE list_id = ? AND id = ?`,
		string(status), nullInt(qtyCollected), listID, itemID,
	)
	if err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, lists.StoreErr("update item", err)
	} else if n == 0 {
		return nil, nil
	}

	it, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM list_items WHERE list_id = ? AND id = ?`, listID, itemID))
	if err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	return it, nil
}

func (s *Store) CompleteList(ctx context.Context, listID, completedBy, shopID string) (*lists.Completion, error) {
	c, err := s.conn(ctx, "complete list")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return nil, lists.StoreErr("complete list", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	var storedShop *string
	err = tx.QueryRowContext(ctx,
		`SELECT status, shop_id FROM lists WHERE id = ? AND `+visible, listID, shopID, shopID,
	).Scan(&status, &storedShop)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("complete list", err)
	}
	if !lists.CanTransition(lists.Status(status), lists.StatusCompleted) {
		return nil, nil
	}

	now := s.clock.Now()
	by := lists.StrPtr(completedBy)
	if _, err := tx.ExecContext(ctx,
		`UPDATE lists SET status = ?, completed_at = ?, completed_by = ? WHERE id = ?`,
		string(lists.StatusCompleted), now.UnixNano(), nullString(by), listID,
	); err != nil {
		return nil, lists.StoreErr("complete list", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, lists.StoreErr("complete list", err)
	}
	return &lists.Completion{
		ListID:      listID,
		ShopID:      storedShop,
		Status:      lists.StatusCompleted,
		CompletedAt: now,
		CompletedBy: by,
	}, nil
}

func (s *Store) DeleteList(ctx context.Context, listID, shopID string) (bool, error) {
	c, err := s.conn(ctx, "delete list")
	if err != nil {
		return false, err
	}
	defer c.Close()

	// foreign_keys=ON makes list_items follow through ON DELETE CASCADE.
	res, err := c.ExecContext(ctx, `DELETE FROM lists WHERE id = ? AND `+visible, listID, shopID, shopID)
	if err != nil {
		return false, lists.StoreErr("delete list", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, lists.StoreErr("delete list", err)
	}
	return n == 1, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	c, err := s.conn(ctx, "health check")
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.PingContext(ctx); err != nil {
		return lists.StoreErr("health check", err)
	}
	return nil
}

func scanList(row rowScanner) (*lists.List, error) {
	var l lists.List
	var status string
	var created int64
	var completed sql.NullInt64
	if err := row.Scan(&l.ID, &l.Title, &l.ShopID, &status, &created, &completed, &l.CompletedBy); err != nil {
		return nil, err
	}
	l.Status = lists.Status(status)
	l.CreatedAt = fromNanos(created)
	if completed.Valid {
		t := fromNanos(completed.Int64)
		l.CompletedAt = &t
	}
	return &l, nil
}

func scanItem(row rowScanner) (*lists.Item, error) {
	var it lists.Item
	var status string
	if err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.QtyRequested, &it.QtyCollected, &status, &it.Version); err != nil {
		return nil, err
	}
	it.Status = lists.ItemStatus(status)
	return &it, nil
}

func collectItems(rows *sql.Rows) ([]lists.Item, error) {
	defer rows.Close()
	out := []lists.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
