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

	"github.com/andresuchdata/tshirt-stock/internal/api"
	"github.com/andresuchdata/tshirt-stock/internal/bootstrap"
	"github.com/andresuchdata/tshirt-stock/internal/config"
	"github.com/andresuchdata/tshirt-stock/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Configure(os.Stdout, cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	inventory, err := bootstrap.Inventory(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load inventory")
	}

	services := &api.Services{Inventory: inventory}
	src, err := bootstrap.DriveSource(ctx, cfg.Drive, "")
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Drive import disabled")
	} else if src != nil {
		services.Drive = src
	}

	router := api.NewRouter(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: int64(cfg.Import.MaxUploadMB) << 20,
	})
	router.MaxMultipartMemory = int64(cfg.Import.MaxUploadMB) << 20

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Backend).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
