// Package migrate applies the goose SQL migrations under db/migrations.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

// Tables are the relations the storefront schema must contain.
var Tables = []string{"carts", "cart_items", "customers", "addresses", "card_orders"}

// ErrUnknownCommand is returned by Run for anything but up, down, status or create.
var ErrUnknownCommand = errors.New("unknown command: use up, down, status, create")

// Run executes a goose command against db. name is only used by create.
func Run(db *sql.DB, dir, command, name string) error {
	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		return goose.Up(db, dir)
	case "down":
		return goose.Down(db, dir)
	case "status":
		return goose.Status(db, dir)
	case "create":
		if strings.TrimSpace(name) == "" {
			return errors.New("name is required for 'create' command")
		}
		goose.SetSequential(true)
		return goose.Create(nil, dir, name, "sql")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

// Verify checks that every table in tables exists in the public schema.
func Verify(ctx context.Context, db *sql.DB, tables []string) error {
	var missing []string
	for _, t := range tables {
		var name sql.NullString
		if err := db.QueryRowContext(ctx, `SELECT to_regclass($1)::text`, "public."+t).Scan(&name); err != nil {
			return fmt.Errorf("check table %s: %w", t, err)
		}
		if !name.Valid {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema not migrated, missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}
