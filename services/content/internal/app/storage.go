package internal

import (
	"strings"

	"content-engine/pkg/cache"
	"content-engine/pkg/database"
	"content-engine/pkg/storage"
)

// buildTier connects the backends named in STORAGE_TIERS, in that order.
// Backends that cannot be reached are left out; with none left the tier
// keeps everything in memory and logs every save as degraded.
func (a *App) buildTier() *storage.Tier {
	var backends []storage.Backend

	for _, name := range a.cfg.StorageTiers {
		switch strings.ToLower(name) {
		case "db", "database":
			db, err := database.Open(a.cfg)
			if err != nil {
				a.log.Error("Failed to connect to database: %v (skipping tier)", err)
				continue
			}
			backend := storage.NewGormBackend(db)
			if err := backend.AutoMigrate(); err != nil {
				a.log.Warn("[STORAGE] auto-migrate failed, relying on goose migrations: %v", err)
			}
			a.db = db
			backends = append(backends, backend)

		case "redis":
			client, err := cache.NewRedisClient(a.cfg)
			if err != nil {
				a.log.Error("Failed to connect to redis: %v (skipping tier)", err)
				continue
			}
			a.redisClient = client
			backends = append(backends, storage.NewRedisBackend(client, 0))

		case "file":
			backends = append(backends, storage.NewFileBackend(a.cfg.StorageDir))

		default:
			a.log.Warn("[STORAGE] unknown storage tier %q ignored", name)
		}
	}

	tier := storage.NewTier(a.log.Named("storage"), backends...)
	a.log.Info("[STORAGE] tiers in use: %v", tier.Backends())
	return tier
}
