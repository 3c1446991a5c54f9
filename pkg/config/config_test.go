package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "testuser")
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("DB_NAME", "testdb")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STORAGE_TIERS", "redis, file")
	t.Setenv("CALL_TIMEOUT", "15s")
	t.Setenv("DISPATCH_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.NotNil(t, cfg)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "testuser", cfg.DBUser)
	assert.Equal(t, "testpass", cfg.DBPassword)
	assert.Equal(t, "testdb", cfg.DBName)
	assert.Equal(t, "cache.internal", cfg.RedisHost)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"redis", "file"}, cfg.StorageTiers)
	assert.Equal(t, 15*time.Second, cfg.CallTimeout)
	assert.Equal(t, 4, cfg.DispatchWorkers)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORAGE_TIERS", "")
	t.Setenv("CALL_TIMEOUT", "")
	t.Setenv("SCHEDULER_TICK", "")
	t.Setenv("CLIENTS_REFRESH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, []string{"db", "redis", "file"}, cfg.StorageTiers)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	assert.Equal(t, time.Minute, cfg.SchedulerTick)
	assert.Equal(t, 10*time.Minute, cfg.ClientsRefresh)
}

func TestLoadConfig_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("DISPATCH_LEASE", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 15*time.Minute, cfg.DispatchLease)
}
