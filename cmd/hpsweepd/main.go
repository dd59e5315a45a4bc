package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/hpsweep/internal/store"
	"github.com/GoSim-25-26J-441/hpsweep/internal/sweepd"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
)

func main() {
	var grpcAddr string
	var httpAddr string
	var logLevel string
	var dbPath string
	var dataDir string
	var rps float64
	var burst int

	flag.StringVar(&grpcAddr, "grpc-addr", ":50051", "gRPC listen address")
	flag.StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&dbPath, "db", "", "sweep history database path (empty disables history)")
	flag.StringVar(&dataDir, "data-dir", ".", "directory relative dataset paths are resolved against")
	flag.Float64Var(&rps, "rate", 20, "HTTP requests per second (0 disables limiting)")
	flag.IntVar(&burst, "burst", 40, "HTTP rate limit burst")
	flag.Parse()

	logger.SetDefault(logger.NewText(logLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := sweepd.NewNotifier()
	opts := []sweepd.ExecutorOption{
		sweepd.WithBaseDir(dataDir),
		sweepd.WithNotifier(notifier),
	}
	if dbPath != "" {
		history, err := store.Open(dbPath)
		if err != nil {
			logger.Error("failed to open history database", "path", dbPath, "error", err)
			os.Exit(1)
		}
		defer history.Close()
		opts = append(opts, sweepd.WithRecorder(history))
	}

	runs := sweepd.NewRunStore()
	executor := sweepd.NewExecutor(runs, opts...)

	grpcServer := grpc.NewServer()
	sweepd.RegisterSweepServiceServer(grpcServer, sweepd.NewSweepGRPCServer(runs, executor))

	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Error("failed to listen for gRPC", "addr", grpcAddr, "error", err)
		stop()
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           sweepd.NewHTTPServer(runs, executor, sweepd.WithRateLimit(rps, burst)).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("gRPC server listening", "addr", grpcAddr)
		if err := grpcServer.Serve(grpcLis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if err := executor.Shutdown(shutdownCtx); err != nil {
		logger.Error("sweep shutdown error", "error", err)
	}
	if err := notifier.Drain(shutdownCtx); err != nil {
		logger.Warn("callbacks still pending at exit", "error", err)
	}
}
