package handlers

import (
	"context"
	"net/http"

	"eduscan-api/config"
	"eduscan-api/events"
	"eduscan-api/middleware"
	"eduscan-api/models"
	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
	"eduscan-api/scoring"
	"eduscan-api/services"
	"eduscan-api/session"
	"eduscan-api/settings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Cache      *services.CacheService
	Auth       *services.AuthService
	Users      *services.UserService
	Records    *services.RecordService
	Batch      *services.BatchService
	Resources  *services.ResourceService
	Pipeline   *scoring.Pipeline
	Settings   *settings.Store
	Sessions   session.Store
	Publisher  events.Publisher
	Subscriber events.Subscriber
	Metrics    *metrics.Collector
	Gatherer   prometheus.Gatherer
	Logger     *logging.StructuredLogger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	router.Use(middleware.SetupCORS(d.Config.CORS))

	router.GET("/health", NewHealthHandler(d.DB, d.Cache, d.Pipeline).Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	router.GET("/ws/live", LiveWebSocket(d.Subscriber, d.Auth, d.Metrics, d.Logger))

	defaultLanguage := func(ctx context.Context) string { return d.Settings.Load(ctx).Language }
	api := router.Group("/api", middleware.Sessions(d.Sessions, defaultLanguage, d.Logger))

	authH := NewAuthHandler(d.Users, d.Auth)
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/logout", authH.Logout)

	settingsH := NewSettingsHandler(d.Settings)
	api.GET("/settings", settingsH.GetSettings)
	api.PUT("/settings", settingsH.UpdateSettings)
	api.GET("/i18n", settingsH.Strings)
	api.GET("/session", settingsH.GetSession)
	api.PUT("/session", settingsH.UpdateSession)

	assessH := NewAssessmentHandler(d.Pipeline, d.Records, d.Batch, d.Publisher, d.Metrics, d.Logger)
	api.POST("/assessments", assessH.Assess)
	api.GET("/assessments/current", assessH.Current)
	api.POST("/assessments/reset", assessH.Reset)
	api.POST("/assessments/batch", assessH.Batch)

	predH := NewPredictionHandler(d.Records)
	api.GET("/predictions", predH.GetPredictions)
	api.GET("/predictions/analytics", predH.GetAnalytics)
	api.GET("/predictions/export", predH.Export)

	obsH := NewObservationHandler(d.Records, d.Publisher, d.Logger)
	api.POST("/observations", obsH.CreateObservation)
	api.GET("/observations", obsH.GetObservations)
	api.GET("/observations/summary", obsH.GetSummary)

	resH := NewResourceHandler(d.Resources)
	api.GET("/resources/activity", resH.GetActivity)
	api.GET("/resources/strategies", resH.GetStrategies)

	adminH := NewAdminHandler(d.Records, d.Config.Purge.DaysOld, d.Publisher, d.Logger)
	api.GET("/summary", adminH.GetSummary)
	admin := api.Group("/admin", middleware.RequireAuth(d.Auth), middleware.RequireRole(models.RoleTeacher))
	admin.POST("/purge", adminH.Purge)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return router
}
