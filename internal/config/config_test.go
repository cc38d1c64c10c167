package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrate_EnvOverride(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")

	if got := LoadMigrate().MigrationsDir; got != "/custom/migrations" {
		t.Fatalf("expected MIGRATIONS_DIR override, got %q", got)
	}
}

func TestLoadMigrate_Default(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")

	if got := LoadMigrate().MigrationsDir; got != "db/migrations" {
		t.Fatalf("expected default migrations dir, got %q", got)
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	if err := os.WriteFile(p, []byte("DB_DSN=from_file\nORDER_QUEUE=fromFile\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("DB_DSN", "from_env")
	t.Setenv("ORDER_QUEUE", "")
	_ = os.Unsetenv("ORDER_QUEUE")

	t.Chdir(tmp)

	LoadEnvFiles()

	if got := os.Getenv("DB_DSN"); got != "from_env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
	if got := os.Getenv("ORDER_QUEUE"); got != "fromFile" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestLoadMessaging(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, k := range []string{"REDIS_ADDR", "ORDER_QUEUE", "CLEANUP_SCHEDULE", "CLEANUP_WORKERS", "QUEUE_RECEIVE_WAIT"} {
			t.Setenv(k, "")
		}
		cfg := LoadMessaging()
		assert.Equal(t, "orderQueue", cfg.OrderQueue)
		assert.Equal(t, "0 0 3 * * *", cfg.CleanupSchedule)
		assert.Equal(t, 2, cfg.CleanupWorkers)
		assert.Equal(t, 5*time.Second, cfg.ReceiveWait)
		assert.Equal(t, ":8082", cfg.Addr)
	})

	t.Run("malformed values fall back", func(t *testing.T) {
		t.Setenv("CLEANUP_WORKERS", "many")
		t.Setenv("QUEUE_RECEIVE_WAIT", "soon")
		cfg := LoadMessaging()
		assert.Equal(t, 2, cfg.CleanupWorkers)
		assert.Equal(t, 5*time.Second, cfg.ReceiveWait)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("CLEANUP_WORKERS", "4")
		t.Setenv("REDIS_ADDR", "redis:6379")
		cfg := LoadMessaging()
		assert.Equal(t, 4, cfg.CleanupWorkers)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
	})
}

func TestLoadWeb(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadWeb()
		assert.Error(t, err)
	})

	t.Run("default user", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("WEB_USERNAME", "")
		t.Setenv("WEB_PASSWORD", "")
		cfg, err := LoadWeb()
		require.NoError(t, err)
		require.Len(t, cfg.Users, 1)
		assert.Equal(t, "apj-user", cfg.Users[0].Username)
		assert.Equal(t, "password123", cfg.Users[0].Password)
		assert.Equal(t, "s3cret", cfg.JWTSecret)
	})
}

func TestLoadAPI_CORSList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, LoadAPI().CORSOrigins)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/storefront", RedactDSN("postgres://user:pw@db:5432/storefront"))
	assert.Equal(t, "not a dsn", RedactDSN("not a dsn"))
	assert.Equal(t, "postgres://db/storefront", RedactDSN("postgres://db/storefront"))
}
