package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/auth"
	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/config"
	"github.com/ariefcatur/go-collection-lists/internal/logging"
	"github.com/ariefcatur/go-collection-lists/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const usage = `usage:
  seed user    -username NAME -password PASS [-shop SHOP] [-role ROLE]
  seed disable -username NAME
  seed product -sku SKU -name NAME -price 12.50`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := storage.Open(ctx, cfg, clock.RealClock{}, logger)
	if err != nil {
		logger.Fatal("store open failed", zap.Error(err))
	}
	defer closeStore()

	if err := run(ctx, store, os.Args[1], os.Args[2:], logger); err != nil {
		logger.Error("seed failed", zap.String("command", os.Args[1]), zap.Error(err))
		closeStore()
		os.Exit(1)
	}
}

func run(ctx context.Context, store storage.Backend, cmd string, args []string, logger *zap.Logger) error {
	switch cmd {
	case "user":
		fs := flag.NewFlagSet("user", flag.ContinueOnError)
		username := fs.String("username", "", "login name")
		password := fs.String("password", "", "plain password, stored as a bcrypt hash")
		shop := fs.String("shop", "", "shop the user belongs to")
		role := fs.String("role", "employee", "user role")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *username == "" || *password == "" {
			return fmt.Errorf("-username and -password are required")
		}
		hash, err := auth.HashPassword(*password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u, err := store.CreateUser(ctx, *username, hash, *shop, *role)
		if err != nil {
			return err
		}
		logger.Info("user created", zap.Int64("id", u.ID), zap.String("username", u.Username), zap.String("role", u.Role))
		return nil

	case "disable":
		fs := flag.NewFlagSet("disable", flag.ContinueOnError)
		username := fs.String("username", "", "login name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		ok, err := store.SetUserActive(ctx, *username, false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %q not found", *username)
		}
		logger.Info("user disabled", zap.String("username", *username))
		return nil

	case "product":
		fs := flag.NewFlagSet("product", flag.ContinueOnError)
		sku := fs.String("sku", "", "catalog sku")
		name := fs.String("name", "", "product name")
		price := fs.String("price", "", "unit price, e.g. 12.50")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *sku == "" || *name == "" {
			return fmt.Errorf("-sku and -name are required")
		}
		p, err := decimal.NewFromString(*price)
		if err != nil || p.IsNegative() {
			return fmt.Errorf("invalid -price %q", *price)
		}
		if err := store.UpsertProduct(ctx, *sku, *name, p); err != nil {
			return err
		}
		logger.Info("product saved", zap.String("sku", *sku), zap.String("price", p.StringFixed(2)))
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}
