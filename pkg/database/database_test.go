package database

import (
	"testing"

	"content-engine/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpen_UnknownDriver(t *testing.T) {
	db, err := Open(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.Config{
		DBHost:     "db",
		DBUser:     "content",
		DBPassword: "secret",
		DBName:     "content_engine",
		DBPort:     "5433",
		DBSSLMode:  "disable",
	})
	assert.Equal(t, "host=db user=content password=secret dbname=content_engine port=5433 sslmode=disable", dsn)
}
