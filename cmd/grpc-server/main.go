package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"bookhub/internal/books"
	"bookhub/internal/catalog"
	"bookhub/internal/grpcserver"
	"bookhub/internal/obs"
	"bookhub/pkg/grpc/catalogpb"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := books.Open(ctx, cfg)
	if err != nil {
		logger.Error("open store", "driver", cfg.Driver, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer()
	catalogpb.RegisterCatalogServiceServer(grpcServer, grpcserver.NewServer(catalog.NewService(store, logger)))

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		grpcServer.GracefulStop()
	}()

	logger.Info("grpc server listening", "addr", cfg.GRPCAddr)
	if err := grpcServer.Serve(listener); err != nil {
		logger.Error("grpc server stopped", "err", err)
	}
}
