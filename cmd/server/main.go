package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/Brownie44l1/carbon-api/internal/category"
	"github.com/Brownie44l1/carbon-api/internal/config"
	"github.com/Brownie44l1/carbon-api/internal/emission"
	"github.com/Brownie44l1/carbon-api/internal/handlers"
	"github.com/Brownie44l1/carbon-api/internal/health"
	"github.com/Brownie44l1/carbon-api/internal/metrics"
	"github.com/Brownie44l1/carbon-api/internal/model"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		klog.Fatalf("%v", err)
	}
}

// run loads the model and serves until ctx is done. No port is bound until
// the model session and estimator are ready.
func run(ctx context.Context, cfg *config.Config) error {
	klog.Infof("Loading model from: %s", cfg.ModelPath)

	// Check the artifact before touching the runtime so a missing file
	// reports as such rather than as a shared library problem.
	if err := model.CheckArtifact(cfg.ModelPath); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	meta, err := model.LoadMetadata(cfg.MetadataPath, model.FootprintMetadata())
	if err != nil {
		return fmt.Errorf("failed to load model metadata: %w", err)
	}
	if err := model.InitRuntime(cfg.ORTLibPath); err != nil {
		return fmt.Errorf("failed to initialize model runtime: %w", err)
	}
	defer func() {
		if err := model.ShutdownRuntime(); err != nil {
			klog.Errorf("Runtime shutdown error: %v", err)
		}
	}()

	session, err := model.NewSession(cfg.ModelPath, meta)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			klog.Errorf("Session close error: %v", err)
		}
	}()

	steps, _ := model.Elements(meta.InputShape)
	m := metrics.New()
	opts := []emission.Option{emission.WithObserver(m)}
	if cfg.CacheBytes > 0 {
		opts = append(opts, emission.WithCache(emission.NewCache(cfg.CacheBytes, cfg.CacheTTL)))
	}
	labels := category.Waste()
	estimator, err := emission.NewEstimator(session, labels, steps, opts...)
	if err != nil {
		return fmt.Errorf("failed to build estimator: %w", err)
	}

	mux := http.NewServeMux()
	handlers.NewHandler(estimator, m).Register(mux)

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: handlers.Chain(mux,
			handlers.RequestID,
			handlers.Recovery,
			handlers.CORS(cfg.AllowOrigin),
			handlers.Logging,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	if cfg.GRPCPort != 0 {
		grpcLis, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.GRPCPort)))
		if err != nil {
			lis.Close()
			return fmt.Errorf("failed to listen for gRPC health: %w", err)
		}
		grpcHealth := health.NewServer()
		go func() {
			if err := grpcHealth.Serve(grpcLis); err != nil {
				klog.Errorf("gRPC health stopped: %v", err)
			}
		}()
		defer grpcHealth.Stop()
		grpcHealth.MarkReady()
	}

	klog.Infof("Server starting on %s", cfg.Addr())
	klog.Infof("Model loaded: %s (input %v, output %v)", cfg.ModelPath, meta.InputShape, meta.OutputShape)
	klog.Infof("Categories: %v", labels.Labels())
	klog.Info("Endpoints:")
	klog.Info("  GET  /health     - Health check")
	klog.Info("  POST /predict    - Emission estimate for a category and weight")
	klog.Info("  GET  /categories - Supported categories")
	klog.Info("  POST /footprint  - Daily footprint from an activity log")
	klog.Info("  GET  /metrics    - Prometheus metrics")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		klog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}
