// arcadectl runs maintenance tasks against the inventory database: schema
// migrations, admin accounts and sample data.
//
// Usage:
//
//	arcadectl migrate up|down|status
//	arcadectl migrate to <id>
//	arcadectl migrate rollback-to <id>
//	arcadectl create-admin -username NAME -email EMAIL [-password PW]
//	arcadectl seed-locations
//
// CONFIG_PATH selects the config file as for the server. The admin password
// may also come from ADMIN_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"

	"arcade-inventory-backend/config"
	"arcade-inventory-backend/internal/auth"
	"arcade-inventory-backend/internal/db"
	"arcade-inventory-backend/internal/model"
	"arcade-inventory-backend/internal/store"
)

var errUsage = errors.New("usage: arcadectl migrate|create-admin|seed-locations [args]")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	gormDB, err := db.Open(&cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	switch args[0] {
	case "migrate":
		return migrate(gormDB, args[1:], out)
	case "create-admin":
		return createAdmin(ctx, gormDB, cfg.Auth.BcryptCost, args[1:], out)
	case "seed-locations":
		n, err := db.SeedLocations(ctx, gormDB)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded %d locations\n", n)
		return nil
	default:
		return errUsage
	}
}

func migrate(gormDB *gorm.DB, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "up":
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
	case "down":
		if err := db.RollbackLast(gormDB); err != nil {
			return err
		}
	case "to", "rollback-to":
		if len(args) != 2 {
			return errUsage
		}
		apply := db.MigrateTo
		if args[0] == "rollback-to" {
			apply = db.RollbackTo
		}
		if err := apply(gormDB, args[1]); err != nil {
			return err
		}
	case "status":
	default:
		return errUsage
	}

	applied, err := db.AppliedMigrations(gormDB)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}
	for _, m := range db.Migrations() {
		mark := " "
		if done[m.ID] {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %s\n", mark, m.ID)
	}
	return nil
}

func createAdmin(ctx context.Context, gormDB *gorm.DB, cost int, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "password (defaults to $ADMIN_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if strings.TrimSpace(*username) == "" || strings.TrimSpace(*email) == "" || *password == "" {
		return fmt.Errorf("create-admin: -username, -email and -password are required")
	}
	if len(*password) < 8 {
		return fmt.Errorf("create-admin: password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(*password, cost)
	if err != nil {
		return err
	}
	u := &model.AdminUser{
		Username:     strings.TrimSpace(*username),
		Email:        strings.TrimSpace(*email),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Active:       true,
	}
	if err := store.NewGormStore(gormDB).CreateAdminUser(ctx, u); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created admin user %q (id %d)\n", u.Username, u.ID)
	return nil
}
