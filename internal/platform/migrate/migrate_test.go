package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	// this file lives in internal/platform/migrate/, so the repo root is ../../..
	root := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", ".."))
	return filepath.Join(root, "db", "migrations")
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("all tables present", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		for _, table := range Tables {
			mock.ExpectQuery(`SELECT to_regclass`).
				WithArgs("public." + table).
				WillReturnRows(sqlmock.NewRows([]string{"to_regclass"}).AddRow(table))
		}

		require.NoError(t, Verify(ctx, db, Tables))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing tables are listed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT to_regclass`).WithArgs("public.carts").
			WillReturnRows(sqlmock.NewRows([]string{"to_regclass"}).AddRow("carts"))
		mock.ExpectQuery(`SELECT to_regclass`).WithArgs("public.card_orders").
			WillReturnRows(sqlmock.NewRows([]string{"to_regclass"}).AddRow(nil))

		err = Verify(ctx, db, []string{"carts", "card_orders"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "card_orders")
		assert.NotContains(t, err.Error(), "carts,")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT to_regclass`).WillReturnError(errors.New("connection reset"))

		err = Verify(ctx, db, []string{"carts"})
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestRun(t *testing.T) {
	t.Run("unknown command", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		err = Run(db, t.TempDir(), "sideways", "")
		assert.ErrorIs(t, err, ErrUnknownCommand)
	})

	t.Run("create requires a name", func(t *testing.T) {
		err := Run(nil, t.TempDir(), "create", " ")
		assert.Error(t, err)
	})

	t.Run("create writes a sql file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, Run(nil, dir, "create", "add_card_stock"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, strings.HasSuffix(entries[0].Name(), "_add_card_stock.sql"), entries[0].Name())
	})
}

func TestMigrations_Parse(t *testing.T) {
	migrations, err := goose.CollectMigrations(migrationsDir(t), 0, goose.MaxVersion)
	require.NoError(t, err)
	assert.Len(t, migrations, 3)
}

func TestMigrations_HaveGooseDirectives(t *testing.T) {
	dir := migrationsDir(t)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		s := string(b)
		assert.Contains(t, s, "-- +goose Up", e.Name())
		assert.Contains(t, s, "-- +goose Down", e.Name())
	}
}

func TestMigrations_CreateEveryTable(t *testing.T) {
	dir := migrationsDir(t)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var all strings.Builder
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		all.Write(b)
	}
	for _, table := range Tables {
		assert.Contains(t, all.String(), "CREATE TABLE "+table+" (", table)
	}
}
