package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/ariefcatur/go-collection-lists/internal/lists/liststest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	var db *sql.DB
	liststest.Run(t, liststest.Harness{
		New: func(t *testing.T, clk clock.Clock) lists.Store {
			db = NewTestDB(t)
			return NewStore(db, clk, time.Second)
		},
		CountItems: func(t *testing.T, listID string) int {
			var n int
			require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM list_items WHERE list_id = ?`, listID).Scan(&n))
			return n
		},
	})
}

func TestAcquireTimeoutIsResourceExhausted(t *testing.T) {
	ctx := context.Background()
	db := NewTestDB(t)
	s := NewStore(db, clock.NewFake(liststest.Start), 50*time.Millisecond)

	held, err := db.Conn(ctx)
	require.NoError(t, err)

	_, err = s.GetList(ctx, "any", "")
	assert.ErrorIs(t, err, lists.ErrResourceExhausted)
	_, err = s.CreateList(ctx, "blocked", "shop-a", nil)
	assert.ErrorIs(t, err, lists.ErrResourceExhausted)
	assert.ErrorIs(t, s.HealthCheck(ctx), lists.ErrResourceExhausted)

	require.NoError(t, held.Close())
	_, err = s.CreateList(ctx, "free again", "shop-a", nil)
	assert.NoError(t, err)
}

func TestCallerCancellationIsNotExhaustion(t *testing.T) {
	db := NewTestDB(t)
	s := NewStore(db, clock.NewFake(liststest.Start), time.Second)

	held, err := db.Conn(context.Background())
	require.NoError(t, err)
	defer held.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.GetList(ctx, "any", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, lists.ErrResourceExhausted)
}

func TestCreateListRejectsInvalidInput(t *testing.T) {
	s := NewStore(NewTestDB(t), nil, 0)
	_, err := s.CreateList(context.Background(), "  ", "shop-a", nil)
	assert.True(t, lists.IsValidation(err))

	_, err = s.CreateList(context.Background(), "ok", "shop-a", []lists.NewItem{{Name: "x", Qty: 0, Status: lists.ItemPending}})
	assert.True(t, lists.IsValidation(err))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(liststest.Start)
	s := NewStore(NewTestDB(t), clk, time.Second)

	u, err := s.CreateUser(ctx, "ana", "hash", "shop-a", "employee")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	got, err := s.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.Active)
	assert.Nil(t, got.LastLogin)
	require.NotNil(t, got.ShopID)
	assert.Equal(t, "shop-a", *got.ShopID)

	at := liststest.Start.Add(time.Hour)
	require.NoError(t, s.TouchLastLogin(ctx, u.ID, at))
	ok, err := s.SetUserActive(ctx, "ana", false)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.False(t, got.Active)
	require.NotNil(t, got.LastLogin)
	assert.True(t, got.LastLogin.Equal(at))

	missing, err := s.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.CreateUser(ctx, "ana", "other", "", "employee")
	assert.Error(t, err, "usernames are unique")
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewTestDB(t), nil, time.Second)

	_, ok, err := s.PriceBySKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertProduct(ctx, "SKU-1", "Milk", decimal.RequireFromString("1.5")))
	require.NoError(t, s.UpsertProduct(ctx, "SKU-1", "Milk 1L", decimal.RequireFromString("1.99")))

	price, ok, err := s.PriceBySKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.99", price.StringFixed(2))
}
