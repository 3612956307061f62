package handlers

import (
	"net/http"

	"eduscan-api/scoring"
	"eduscan-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	cache    *services.CacheService
	pipeline *scoring.Pipeline
}

func NewHealthHandler(db *gorm.DB, cache *services.CacheService, pipeline *scoring.Pipeline) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, pipeline: pipeline}
}

// Health reports UP whenever the process can serve. Storage and model
// state are informational since both degrade instead of failing.
func (h *HealthHandler) Health(c *gin.Context) {
	storage := "file"
	if h.db != nil {
		storage = "database"
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			storage = "file (database unreachable)"
		}
	}

	cache := "memory"
	if h.cache.Available() {
		cache = "redis"
	}

	modelState := gin.H{}
	for _, v := range scoring.Variants() {
		e, err := h.pipeline.Engine(v)
		if err != nil {
			continue
		}
		state := "trained"
		if e.State.IsFallback() {
			state = "fallback"
		}
		modelState[string(v)] = gin.H{"classifier": state, "default_scaler": e.DefaultScaler}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "UP",
		"message":         "EduScan API is running",
		"storage":         storage,
		"sessions":        cache,
		"default_variant": h.pipeline.DefaultVariant(),
		"models":          modelState,
	})
}
