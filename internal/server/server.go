package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/openballot/backend/internal/config"
	"github.com/openballot/backend/internal/database"
	"github.com/openballot/backend/internal/handlers"
	"github.com/openballot/backend/internal/middleware"
	"github.com/openballot/backend/internal/notify"
	"github.com/openballot/backend/internal/realtime"
)

// New builds the full server: database, realtime broker, notifier,
// handlers, routes. The caller owns ListenAndServe and Shutdown.
func New(cfg *config.Config) (*http.Server, database.Service, error) {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	var broker realtime.Broker
	if cfg.RedisURI != "" {
		redisBroker, err := realtime.NewRedisBroker(cfg.RedisURI)
		if err != nil {
			return nil, nil, err
		}
		broker = redisBroker
		log.Info("realtime feed backed by redis")
	} else {
		broker = realtime.NewMemoryBroker()
		log.Info("realtime feed running in-process")
	}

	notifier := notify.New(cfg)

	router := NewRouter(db, cfg, broker, notifier)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		// Long-lived SSE streams need an unbounded write window.
		WriteTimeout: 0,
	}

	return server, db, nil
}

// NewRouter sets up all application routes.
func NewRouter(db database.Service, cfg *config.Config, broker realtime.Broker, notifier notify.Notifier) *gin.Engine {
	handler := handlers.NewHandler(db.GetDB(), cfg, broker, notifier)
	secret := []byte(cfg.JWTSecret)

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, db.Health())
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", handler.Auth.Register)
		api.POST("/login", handler.Auth.Login)

		// Authenticated routes
		authed := api.Group("")
		authed.Use(middleware.Auth(db.GetDB(), secret))
		{
			authed.GET("/me", handler.Auth.GetMe)

			authed.GET("/elections", handler.Election.GetElections)
			authed.GET("/elections/:id", handler.Election.GetElection)
			authed.POST("/elections/:id/vote", handler.Vote.CastVote)
			authed.GET("/elections/:id/results", handler.Results.GetResults)
			authed.GET("/elections/:id/stream", handler.Results.StreamResults)

			// Admin routes
			admin := authed.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/elections", handler.Election.CreateElection)
				admin.PATCH("/elections/:id", handler.Election.UpdateElection)
				admin.GET("/users", handler.User.GetUsers)
				admin.PUT("/users/:id/role", handler.User.ChangeRole)
				admin.GET("/admin/overview", handler.Admin.Overview)
			}
		}
	}

	return r
}
