package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bookhub/internal/api"
	"bookhub/internal/auth"
	"bookhub/internal/books"
	"bookhub/internal/catalog"
	"bookhub/internal/events"
	"bookhub/internal/ingest"
	"bookhub/internal/obs"
	"bookhub/pkg/utils"
)

func main() {
	configPath := flag.String("config", utils.DefaultConfigFile, "config file (json5)")
	flag.Parse()

	cfg, err := utils.Load(*configPath)
	if err != nil {
		obs.Logger.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := obs.InitLogger(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := books.Open(ctx, cfg)
	if err != nil {
		logger.Error("open store", "driver", cfg.Driver, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	hub := events.NewHub(logger)
	defer hub.Close()
	tcpSrv := events.NewServer(cfg.EventsAddr, hub)

	pipeline := ingest.FromConfig(store, cfg, logger)
	pipeline.Observer = hub

	router := api.NewRouter(api.Deps{
		Store:    store,
		Catalog:  catalog.NewService(store, logger),
		Pipeline: pipeline,
		Hub:      hub,
		Tokens:   auth.NewTokenService(cfg.Auth),
		Driver:   cfg.Driver,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("http api listening", "addr", cfg.HTTPAddr, "driver", cfg.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "err", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}

	wg.Wait()
	logger.Info("servers stopped")
}
