package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/auth"
	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/ariefcatur/go-collection-lists/internal/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var loginAt = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

func seedUser(t *testing.T, store *sqlite.Store, username, password string) *lists.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), username, string(hash), "shop-1", "employee")
	require.NoError(t, err)
	return u
}

func setup(t *testing.T) (*auth.Service, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(sqlite.NewTestDB(t), nil, time.Second)
	return auth.NewService(store, clock.NewFake(loginAt), nil), store
}

func TestLoginSuccess(t *testing.T) {
	svc, store := setup(t)
	created := seedUser(t, store, "ana", "s3cret")

	u, err := svc.Login(context.Background(), " ana ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.Equal(t, "employee", u.Role)
	require.NotNil(t, u.LastLogin)
	assert.True(t, u.LastLogin.Equal(loginAt))

	stored, err := store.GetUserByUsername(context.Background(), "ana")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(loginAt))
}

func TestLoginFailures(t *testing.T) {
	svc, store := setup(t)
	seedUser(t, store, "ana", "s3cret")
	seedUser(t, store, "bo", "pw")
	_, err := store.SetUserActive(context.Background(), "bo", false)
	require.NoError(t, err)

	cases := []struct {
		name, user, pass string
		want             error
	}{
		{"missing username", "", "x", auth.ErrMissingCredentials},
		{"missing password", "ana", "", auth.ErrMissingCredentials},
		{"unknown user", "zed", "x", auth.ErrInvalidCredentials},
		{"wrong password", "ana", "nope", auth.ErrInvalidCredentials},
		{"disabled", "bo", "pw", auth.ErrAccountDisabled},
		{"disabled with wrong password", "bo", "nope", auth.ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.user, tc.pass)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

type flakyUsers struct {
	u *lists.User
}

func (f flakyUsers) GetUserByUsername(context.Context, string) (*lists.User, error) {
	cp := *f.u
	return &cp, nil
}

func (flakyUsers) TouchLastLogin(context.Context, int64, time.Time) error {
	return errors.New("read-only replica")
}

func TestLoginSurvivesLastLoginFailure(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := auth.NewService(flakyUsers{u: &lists.User{ID: 1, Username: "ana", PasswordHash: string(hash), Active: true}}, nil, nil)

	u, err := svc.Login(context.Background(), "ana", "pw")
	require.NoError(t, err)
	assert.Nil(t, u.LastLogin)
}

func TestHashPassword(t *testing.T) {
	h, err := auth.HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")))
}
