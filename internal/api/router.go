package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/meqenet/meqenet-back/docs"
	"github.com/meqenet/meqenet-back/internal/auth"
	"github.com/meqenet/meqenet-back/internal/config"
	"github.com/meqenet/meqenet-back/internal/logger"
	"github.com/meqenet/meqenet-back/internal/models"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Config   *config.Config
	DB       Pinger
	Gate     *auth.Gate
	Auth     *auth.Handler
	Handlers *Handlers
	Log      *logger.Logger
}

// @title           Meqenet API
// @version         1.0
// @description     Progress sync backend for the Meqenet learner app, teacher portal and admin dashboard.
// @host            localhost:8000
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func SetupRouter(d Deps) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(d.Log.With("service", "http")), CORS(d.Config.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			d.Log.Error("Health check failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "db_ping_error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	requireAuth := auth.Middleware(d.Gate)
	h := d.Handlers

	api := r.Group("/api")
	api.GET("/status", h.Status)
	api.GET("/schools", h.ListSchools)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", d.Auth.Register)
		authGroup.POST("/login", d.Auth.Login)
		authGroup.POST("/refresh", requireAuth, d.Auth.Refresh)
		authGroup.POST("/logout", requireAuth, d.Auth.Logout)
		authGroup.GET("/google/login", d.Auth.GoogleLogin)
		authGroup.GET("/google/callback", d.Auth.GoogleCallback)
	}

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/me", h.GetMe)
		protected.PATCH("/me/language", h.UpdateLanguage)

		protected.GET("/learners", h.ListLearners)
		protected.POST("/learners", h.CreateLearner)
		protected.POST("/learners/import", auth.RequireRoles(models.RoleAdmin), h.ImportLearners)
		protected.GET("/learners/:id/progress", h.GetLearnerProgress)
		protected.POST("/learners/:id/progress", h.SyncLearnerProgress)

		protected.GET("/teachers/:id/cpd-progress", h.GetCPDProgress)
		protected.POST("/teachers/:id/cpd-progress", h.SyncCPDProgress)
	}

	return r
}
