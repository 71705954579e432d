package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/lists"
)

const userColumns = `id, username, password_hash, shop_id, role, active, last_login, created_at`

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*lists.User, error) {
	c, err := s.conn(ctx, "get user")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var u lists.User
	var lastLogin sql.NullInt64
	var created int64
	err = c.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.ShopID, &u.Role, &u.Active, &lastLogin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("get user", err)
	}
	u.CreatedAt = fromNanos(created)
	if lastLogin.Valid {
		t := fromNanos(lastLogin.Int64)
		u.LastLogin = &t
	}
	return &u, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	c, err := s.conn(ctx, "touch last login")
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UnixNano(), userID); err != nil {
		return lists.StoreErr("touch last login", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash, shopID, role string) (*lists.User, error) {
	c, err := s.conn(ctx, "create user")
	if err != nil {
		return nil, err
	}
	defer c.Close()

	u := lists.User{Username: username, PasswordHash: passwordHash, ShopID: lists.StrPtr(shopID), Role: role, Active: true, CreatedAt: s.clock.Now()}
	res, err := c.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, shop_id, role, active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
		username, passwordHash, nullString(u.ShopID), role, u.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, lists.StoreErr("create user", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return nil, lists.StoreErr("create user", err)
	}
	return &u, nil
}

func (s *Store) SetUserActive(ctx context.Context, username string, active bool) (bool, error) {
	c, err := s.conn(ctx, "set user active")
	if err != nil {
		return false, err
	}
	defer c.Close()

	res, err := c.ExecContext(ctx, `UPDATE users SET active = ? WHERE username = ?`, active, username)
	if err != nil {
		return false, lists.StoreErr("set user active", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, lists.StoreErr("set user active", err)
	}
	return n == 1, nil
}
