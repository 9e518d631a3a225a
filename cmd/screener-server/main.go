package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"screener/internal/app"
	"screener/internal/config"
	"screener/internal/httpapi"
	"screener/internal/rpc"
	"screener/internal/scheduler"
	"screener/internal/util"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Dual logger: stdout + /tmp log file.
	logFileName := fmt.Sprintf("/tmp/screener-server-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()

	logger := util.NewLoggerTo(io.MultiWriter(os.Stdout, logFile), cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("initializing dashboard: %v", err)
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load the date index before serving.
	refresh := scheduler.NewRefreshJob(a.Cache, a.Calendar, cfg.Refresh.WarmDates, logger)
	sched := scheduler.New(5*time.Minute, logger)
	if err := sched.RunNow(refresh); err != nil {
		logger.Warn("initial refresh failed", "error", err)
	}
	if err := sched.AddJob(cfg.Refresh.Schedule, refresh); err != nil {
		log.Fatalf("scheduling refresh: %v", err)
	}
	sched.Start()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           httpapi.NewServer(a.Service, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr, "storage", cfg.Storage.Kind)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	grpcServer := grpc.NewServer()
	health := rpc.NewServer(a.Service, logger).RegisterGRPC(grpcServer)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr())
	if err != nil {
		log.Fatalf("listening on %s: %v", cfg.Server.GRPCAddr(), err)
	}
	go func() {
		logger.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down screener server")

	health.Shutdown()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
}
