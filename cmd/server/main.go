package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"agentdesk/internal/activity"
	"agentdesk/internal/config"
	"agentdesk/internal/controllers"
	"agentdesk/internal/database"
	"agentdesk/internal/logger"
	"agentdesk/internal/middleware"
	"agentdesk/internal/policy"
	"agentdesk/internal/routes"
	"agentdesk/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	// Initialize structured logging to file
	log, err := logger.Setup(logger.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		Console: !cfg.IsProduction(),
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logging")
	}

	// Connect to the database
	db, err := config.InitDB(cfg.Database, logger.GormLogger(log))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Prepare(db, cfg.Database.AutoMigrate, log); err != nil {
		log.WithError(err).Fatal("failed to prepare schema")
	}

	st := store.New(db)
	if cfg.SeedDefaultUsers {
		if err := database.SeedDefaultUsers(context.Background(), st, log); err != nil {
			log.WithError(err).Fatal("failed to seed default users")
		}
	}

	sessionMW, err := middleware.Sessions(middleware.SessionOptions{
		Secret:        cfg.Session.Secret,
		Backend:       cfg.Session.Store,
		RedisAddr:     cfg.Session.RedisAddr,
		RedisPassword: cfg.Session.RedisPassword,
		MaxAge:        cfg.Session.MaxAge,
		Secure:        cfg.IsProduction(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to set up sessions")
	}

	deps := &controllers.Deps{
		Store:    st,
		Policy:   policy.New(st, policy.WithStrictManagerMessaging(cfg.StrictManagerMessaging)),
		Activity: activity.New(st, log),
		Auth:     middleware.NewAuthenticator(st, middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)),
		Log:      log,
		Location: cfg.Location,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(deps, routes.Options{
		Sessions:     sessionMW,
		LoginLimiter: middleware.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst),
		AccessLog:    log.Out,
	})

	// Wrap with CORS
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           middleware.EnableCORS(cfg.CORSAllowedOrigins, r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server running at :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
