package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cepradar/server/config"
	"cepradar/server/internal/api"
	"cepradar/server/internal/database"
	"cepradar/server/internal/market"
	"cepradar/server/internal/monitor"
	"cepradar/server/internal/upstream"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", cfg.Database.Path)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	engine := upstream.NewClient(cfg.Engine.BaseURL, time.Duration(cfg.Engine.Timeout)*time.Second, logger)

	mon := monitor.New(engine, db, logger,
		time.Duration(cfg.Monitor.PollInterval)*time.Second, cfg.Monitor.KeepAlive)
	mon.Start()

	marketSvc := market.NewService(engine, logger, cfg.Market.RadiusMeters)
	handler := api.NewHandler(mon, engine, marketSvc, db, cfg, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestID())
	router.Use(api.CORSMiddleware(cfg.Server.CORSOrigins))
	api.SetupRoutes(router, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	mon.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced server shutdown")
	}
}
