// Package app assembles the storage and domain services shared by the API
// server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"eduscan-api/config"
	"eduscan-api/database"
	"eduscan-api/models"
	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
	"eduscan-api/scoring"
	"eduscan-api/services"
	"eduscan-api/store"

	"gorm.io/gorm"
)

const (
	PredictionsFile  = "student_data.json"
	ObservationsFile = "parent_observations.json"
	UsersFile        = "users.json"
	SettingsFile     = "app_settings.json"
)

// Core is the storage-backed part of the service.
type Core struct {
	DB       *gorm.DB
	Cache    *services.CacheService
	Auth     *services.AuthService
	Users    *services.UserService
	Records  *services.RecordService
	Pipeline *scoring.Pipeline
}

// Open connects storage and builds the services on top of it. A database
// that cannot be reached is logged and the stores run on their files.
// Redis is pinged redisAttempts times; 0 skips it and leaves the cache
// disconnected.
func Open(ctx context.Context, cfg *config.Config, redisAttempts int, logger *logging.StructuredLogger, m *metrics.Collector) (*Core, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Warn(ctx, "[DB] unavailable, using flat files", logging.Fields{
			"driver": cfg.Database.Driver,
			"error":  err.Error(),
		})
		db = nil
	}

	predictions := store.NewFallback[models.PredictionRecord]("predictions",
		store.NewGormLog[models.PredictionRecord](db, "seq asc"),
		store.NewJSONFile[models.PredictionRecord](cfg.Data.Path(PredictionsFile), logger),
		logger, m)
	observations := store.NewFallback[models.ParentObservation]("observations",
		store.NewGormLog[models.ParentObservation](db, "seq asc"),
		store.NewJSONFile[models.ParentObservation](cfg.Data.Path(ObservationsFile), logger),
		logger, m)
	userLog := store.NewFallback[models.User]("users",
		store.NewGormLog[models.User](db, "id asc"),
		store.NewJSONFile[models.User](cfg.Data.Path(UsersFile), logger),
		logger, m)

	auth := services.NewAuthService(cfg.JWT)
	users := services.NewUserService(userLog, auth, logger)
	if err := users.SeedDefaults(ctx); err != nil {
		logger.Warn(ctx, "[USERS] seeding default accounts failed", logging.Fields{"error": err.Error()})
	}

	pipeline, err := scoring.NewPipeline(cfg.Data.ModelDir, scoring.Variant(cfg.Scoring.DefaultVariant), logger)
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("load scoring pipeline: %w", err)
	}

	cache := services.NewCacheServiceWithClient(nil)
	if redisAttempts > 0 {
		if cache, err = services.NewCacheService(cfg.Redis, redisAttempts, logger); err != nil {
			logger.Warn(ctx, "[CACHE] running without redis", logging.Fields{"error": err.Error()})
		}
	}

	return &Core{
		DB:       db,
		Cache:    cache,
		Auth:     auth,
		Users:    users,
		Records:  services.NewRecordService(predictions, observations, users, logger).UseCache(cache),
		Pipeline: pipeline,
	}, nil
}

func (c *Core) Close() error {
	return errors.Join(c.Cache.Close(), database.Close(c.DB))
}
