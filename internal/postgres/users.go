package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, shop_id, role, active, last_login, created_at`

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*lists.User, error) {
	conn, err := s.acquire(ctx, "get user")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var u lists.User
	err = conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.ShopID, &u.Role, &u.Active, &u.LastLogin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lists.StoreErr("get user", err)
	}
	return &u, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	conn, err := s.acquire(ctx, "touch last login")
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, userID, at); err != nil {
		return lists.StoreErr("touch last login", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash, shopID, role string) (*lists.User, error) {
	conn, err := s.acquire(ctx, "create user")
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	u := lists.User{Username: username, PasswordHash: passwordHash, ShopID: lists.StrPtr(shopID), Role: role, Active: true}
	err = conn.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, shop_id, role, active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		RETURNING id, created_at`,
		username, passwordHash, u.ShopID, role, s.clock.Now(),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, lists.StoreErr("create user", err)
	}
	return &u, nil
}

func (s *Store) SetUserActive(ctx context.Context, username string, active bool) (bool, error) {
	conn, err := s.acquire(ctx, "set user active")
	if err != nil {
		return false, err
	}
	defer conn.Release()

	ct, err := conn.Exec(ctx, `UPDATE users SET active = $2 WHERE username = $1`, username, active)
	if err != nil {
		return false, lists.StoreErr("set user active", err)
	}
	return ct.RowsAffected() == 1, nil
}
