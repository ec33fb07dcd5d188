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

	"github.com/gymgrid/backend/config"
	"github.com/gymgrid/backend/internal/auditlog"
	"github.com/gymgrid/backend/internal/auth"
	"github.com/gymgrid/backend/internal/devices"
	"github.com/gymgrid/backend/internal/gyms"
	"github.com/gymgrid/backend/internal/middleware"
	"github.com/gymgrid/backend/internal/organizations"
	"github.com/gymgrid/backend/pkg/database"
	"github.com/gymgrid/backend/pkg/redis"
	"github.com/gymgrid/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, db, err := database.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()

	if err := database.EnsureIndexes(ctx, db, logger); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Identity service.
	tokens := auth.NewTokenService(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.IDTokenTTLMin)*time.Minute,
		time.Duration(cfg.Auth.SessionTTLHours)*time.Hour,
	)
	sessions := auth.NewSessionRegistry(rdb.Client, tokens.SessionTTL())
	verifier := auth.NewVerifier(tokens, sessions)

	var google auth.GoogleTokenVerifier
	if cfg.Auth.GoogleClientID != "" {
		google = auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)
	} else {
		logger.Warn("google login disabled: GOOGLE_CLIENT_ID not set")
	}

	// Stores and handlers.
	audit := auditlog.New(db, logger)
	userRepo := auth.NewRepository(db)
	orgRepo := organizations.NewRepository(db)
	deviceRepo := devices.NewRepository(db)
	gymRepo := gyms.NewRepository(db)

	authHandler := auth.NewHandler(userRepo, tokens, sessions, google, cfg.Auth.SessionCookieName, cfg.Server.IsProd(), logger)
	orgHandler := organizations.NewHandler(orgRepo, deviceRepo, audit, logger)
	deviceHandler := devices.NewHandler(deviceRepo, orgRepo, audit, logger)
	gymHandler := gyms.NewHandler(gymRepo, orgRepo, audit, logger)

	if cfg.Server.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(logger, !cfg.Server.IsProd()))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		if err := mongoClient.Ping(c.Request.Context(), nil); err != nil {
			response.Internal(c, "database unreachable")
			return
		}
		response.OKMessage(c, "ok")
	})

	public := router.Group("/auth")
	{
		public.POST("/signup", authHandler.Signup)
		public.POST("/login", authHandler.Login)
		public.POST("/google-login", authHandler.GoogleLogin)
		public.POST("/logout", authHandler.Logout)
	}

	protected := router.Group("/")
	protected.Use(middleware.Authenticate(verifier, cfg.Auth.SessionCookieName))
	{
		protected.GET("/auth/profile", authHandler.Profile)

		protected.GET("/organizations", orgHandler.List)
		protected.POST("/organizations", orgHandler.Create)
		protected.GET("/organizations/:id", orgHandler.GetByID)
		protected.PUT("/organizations/:id", orgHandler.Update)
		protected.DELETE("/organizations/:id", orgHandler.Delete)

		protected.GET("/organizations/:id/gyms", gymHandler.List)
		protected.POST("/organizations/:id/gyms", gymHandler.Create)
		protected.GET("/organizations/:id/gyms/:gymId", gymHandler.GetByID)
		protected.PUT("/organizations/:id/gyms/:gymId", gymHandler.Update)
		protected.DELETE("/organizations/:id/gyms/:gymId", gymHandler.Delete)

		protected.GET("/devices", deviceHandler.List)
		protected.POST("/devices", deviceHandler.Create)
		protected.POST("/devices/bulk-assign", deviceHandler.BulkAssign)
		protected.GET("/devices/:id", deviceHandler.GetByID)
		protected.PUT("/devices/:id", deviceHandler.Update)
		protected.DELETE("/devices/:id", deviceHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
