package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/middleware"
	"github.com/formworks/intake-api/internal/service"
	"github.com/formworks/intake-api/pkg/config"
	"github.com/formworks/intake-api/pkg/logger"
	"github.com/formworks/intake-api/pkg/middleware/cors"
	"github.com/formworks/intake-api/pkg/middleware/requestid"
)

// NewRouter wires the HTTP surface: the form page, the submission intake,
// health and metrics.
func NewRouter(
	cfg *config.Config,
	l *zap.Logger,
	metricsSvc *service.MetricsService,
	form *FormHandler,
	submissions *SubmissionHandler,
) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(l))
	r.Use(cors.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/", middleware.SharedSecret(cfg.SharedSecret), form.Show)
	r.POST("/", submissions.Create)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsSvc != nil {
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}

	return r
}
