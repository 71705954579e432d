package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("username and password required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)

// UserStore is implemented by both store backends.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*lists.User, error)
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}

type Service struct {
	users  UserStore
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(users UserStore, clk clock.Clock, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, clock: clk, logger: logger}
}

// Login checks a username/password pair. The disabled flag is only reported
// to a caller that presented the right password.
func (s *Service) Login(ctx context.Context, username, password string) (*lists.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}

	now := s.clock.Now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn("update last login failed", zap.Int64("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}
	return u, nil
}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
