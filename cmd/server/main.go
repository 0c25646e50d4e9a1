// Package main runs the ticketing platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventlane/backend/config"
	"github.com/eventlane/backend/internal/access"
	"github.com/eventlane/backend/internal/auth"
	"github.com/eventlane/backend/internal/emaillog"
	"github.com/eventlane/backend/internal/events"
	"github.com/eventlane/backend/internal/middleware"
	"github.com/eventlane/backend/internal/organizations"
	"github.com/eventlane/backend/internal/roles"
	"github.com/eventlane/backend/internal/team"
	"github.com/eventlane/backend/pkg/database"
	"github.com/eventlane/backend/pkg/queue"
	"github.com/eventlane/backend/pkg/redis"
	"github.com/eventlane/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	checker := access.NewChecker(pool)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo, checker)

	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, checker)

	roleRepo := roles.NewRepository(pool)
	roleHandler := roles.NewHandler(roleRepo, checker, logger)

	emailLogRepo := emaillog.NewRepository(pool)
	emailLogHandler := emaillog.NewHandler(emailLogRepo, checker)

	teamRepo := team.NewRepository(pool)
	teamHandler := team.NewHandler(teamRepo, roleRepo, authRepo, eventRepo, orgRepo, checker, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Organizations
		api.GET("/organizations", orgHandler.ListMine)
		api.POST("/organizations", orgHandler.Create)
		api.GET("/organizations/:orgId", orgHandler.Get)

		// Roles
		api.GET("/organizations/:orgId/roles", roleHandler.List)
		api.POST("/organizations/:orgId/roles", roleHandler.Create)
		api.PATCH("/organizations/:orgId/roles/reorder", roleHandler.Reorder)
		api.PATCH("/organizations/:orgId/roles/:roleId", roleHandler.Update)
		api.DELETE("/organizations/:orgId/roles/:roleId", roleHandler.Delete)

		// Organization team
		api.GET("/organizations/:orgId/team", teamHandler.ListOrgTeam)
		api.POST("/organizations/:orgId/team", teamHandler.InviteOrgMember)
		api.PATCH("/organizations/:orgId/team/:memberId", teamHandler.UpdateOrgMember)
		api.DELETE("/organizations/:orgId/team/:memberId", teamHandler.DeleteOrgMember)
		api.GET("/organizations/:orgId/email-logs", emailLogHandler.ListByOrganization)

		// Events
		api.GET("/organizations/:orgId/events", eventHandler.ListByOrganization)
		api.POST("/organizations/:orgId/events", eventHandler.Create)
		api.GET("/events/:eventId", eventHandler.Get)

		// Event team
		api.GET("/events/:eventId/team", teamHandler.ListEventTeam)
		api.POST("/events/:eventId/team", teamHandler.InviteEventMember)
		api.PATCH("/events/:eventId/team/:memberId", teamHandler.UpdateEventMember)
		api.DELETE("/events/:eventId/team/:memberId", teamHandler.DeleteEventMember)

		// Invitation acceptance
		api.POST("/invitations/:token/accept", teamHandler.Accept)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
