package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultAcquireTimeout = 30 * time.Second

// Store is the Postgres implementation of lists.Store.
type Store struct {
	pool           *pgxpool.Pool
	clock          clock.Clock
	acquireTimeout time.Duration
}

func NewStore(pool *pgxpool.Pool, clk clock.Clock, acquireTimeout time.Duration) *Store {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if acquireTimeout <= 0 {
		acquireTimeout = defaultAcquireTimeout
	}
	return &Store{pool: pool, clock: clk, acquireTimeout: acquireTimeout}
}

var _ lists.Store = (*Store)(nil)

// acquire waits at most acquireTimeout for a pooled connection.
func (s *Store) acquire(ctx context.Context, op string) (*pgxpool.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	conn, err := s.pool.Acquire(actx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, lists.ErrResourceExhausted
		}
		return nil, lists.StoreErr(op, err)
	}
	return conn, nil
}

const listColumns = `id, title, shop_id, status, created_at, completed_at, completed_by`

const itemColumns = `id, sku, name, qty_requested, qty_collected, status, version`

// visible matches a list against an optional shop scope passed as $2.
const visible = `($2::text = '' OR shop_id = $2::text OR shop_id IS NULL)`

func (s *Store) CreateList(ctx context.Context, title, shopID string, items []lists.NewItem) (*lists.List, error) {
	if err := lists.ValidateNewList(title, items); err != nil {
		return nil, err
	}
	conn, err := s.acquire(ctx, "create list")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, lists.StoreErr("create list", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l := &lists.List{
		ID:        lists.NewListID(),
		Title:     title,
		ShopID:    lists.StrPtr(shopID),
		Status:    lists.StatusActive,
		CreatedAt: s.clock.Now(),
		Items:     make([]lists.Item, 0, len(items)),
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO lists (id, title, shop_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.Title, l.ShopID, string(l.Status), l.CreatedAt,
	); err != nil {
		return nil, lists.StoreErr("create list", err)
	}

	if len(items) > 0 {
		batch := &pgx.Batch{}
		for i, in := range items {
			it := lists.Item{ID: in.ID, SKU: in.SKU, Name: in.Name, QtyRequested: in.Qty, Status: in.Status, Version: 1}
			if it.ID == "" {
				it.ID = lists.NewItemID()
			}
			batch.Queue(`
				INSERT INTO list_items (list_id, id, position, sku, name, qty_requested, status, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 1)`,
				l.ID, it.ID, i, it.SKU, it.Name, it.QtyRequested, string(it.Status),
			)
			l.Items = append(l.Items, it)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, lists.StoreErr("create list items", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, lists.StoreErr("create list", err)
	}
	return l, nil
}

func (s *Store) GetList(ctx context.Context, listID, shopID string) (*lists.List, error) {
	conn, err := s.acquire(ctx, "get list")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	l, err := scanList(conn.QueryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = $1 AND `+visible, listID, shopID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("get list", err)
	}

	rows, err := conn.Query(ctx, `SELECT `+itemColumns+` FROM list_items WHERE list_id = $1 ORDER BY position`, listID)
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
	conn, err := s.acquire(ctx, "list lists")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT `+listColumns+` FROM lists
		WHERE ($1::text = '' OR shop_id = $1::text OR shop_id IS NULL)
		ORDER BY created_at DESC, id DESC`, shopID)
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
	if err := rows.Err(); err != nil {
		return nil, lists.StoreErr("list lists", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	index := make(map[string]int, len(out))
	for i, l := range out {
		ids[i] = l.ID
		index[l.ID] = i
	}
	irows, err := conn.Query(ctx, `
		SELECT list_id, `+itemColumns+` FROM list_items
		WHERE list_id = ANY($1) ORDER BY list_id, position`, ids)
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
	conn, err := s.acquire(ctx, "update item")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// FOR SHARE lets item updates run side by side while excluding a
	// concurrent completion of the same list.
	var listStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM lists WHERE id = $1 FOR SHARE`, listID).Scan(&listStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	if lists.Status(listStatus) != lists.StatusActive {
		return nil, lists.ErrListCompleted
	}

	// The row lock taken by UPDATE serializes writers of one item, so each
	// sees the version left by the previous one.
	it, err := scanItem(tx.QueryRow(ctx, `
		UPDATE list_items
		SET status = $3,
		    qty_collected = COALESCE($4, qty_collected),
		    version = version + 1
		WHERE list_id = $1 AND id = $2
		RETURNING `+itemColumns,
		listID, itemID, string(status), qtyCollected,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, lists.StoreErr("update item", err)
	}
	return it, nil
}

func (s *Store) CompleteList(ctx context.Context, listID, completedBy, shopID string) (*lists.Completion, error) {
	conn, err := s.acquire(ctx, "complete list")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	c := &lists.Completion{ListID: listID, Status: lists.StatusCompleted}
	err = conn.QueryRow(ctx, `
		UPDATE lists
		SET status = 'completed', completed_at = $3, completed_by = $4
		WHERE id = $1 AND status = 'active' AND `+visible+`
		RETURNING shop_id, completed_at, completed_by`,
		listID, shopID, s.clock.Now(), lists.StrPtr(completedBy),
	).Scan(&c.ShopID, &c.CompletedAt, &c.CompletedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("complete list", err)
	}
	return c, nil
}

func (s *Store) DeleteList(ctx context.Context, listID, shopID string) (bool, error) {
	conn, err := s.acquire(ctx, "delete list")
	if err != nil {
		return false, err
	}
	defer conn.Release()

	// list_items rows go with the list through ON DELETE CASCADE.
	ct, err := conn.Exec(ctx, `DELETE FROM lists WHERE id = $1 AND `+visible, listID, shopID)
	if err != nil {
		return false, lists.StoreErr("delete list", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	conn, err := s.acquire(ctx, "health check")
	if err != nil {
		return err
	}
	defer conn.Release()
	if err := conn.Ping(ctx); err != nil {
		return lists.StoreErr("health check", err)
	}
	return nil
}

func scanList(row pgx.Row) (*lists.List, error) {
	var l lists.List
	var status string
	if err := row.Scan(&l.ID, &l.Title, &l.ShopID, &status, &l.CreatedAt, &l.CompletedAt, &l.CompletedBy); err != nil {
		return nil, err
	}
	l.Status = lists.Status(status)
	return &l, nil
}

func scanItem(row pgx.Row) (*lists.Item, error) {
	var it lists.Item
	var status string
	if err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.QtyRequested, &it.QtyCollected, &status, &it.Version); err != nil {
		return nil, err
	}
	it.Status = lists.ItemStatus(status)
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]lists.Item, error) {
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
