package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/config"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/server"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/telemetry"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/voiceover"
)

// lazyTTSServer wraps a TextToSpeechServiceServer and allows deferred initialization.
// It returns Unavailable errors until the underlying server is set via setServer.
type lazyTTSServer struct {
	napv1.UnimplementedTextToSpeechServiceServer
	server atomic.Pointer[napv1.TextToSpeechServiceServer]
}

func (l *lazyTTSServer) setServer(srv napv1.TextToSpeechServiceServer) {
	l.server.Store(&srv)
}

func (l *lazyTTSServer) StreamSynthesis(req *napv1.StreamSynthesisRequest, stream napv1.TextToSpeechService_StreamSynthesisServer) error {
	srv := l.server.Load()
	if srv == nil {
		return status.Error(codes.Unavailable, "voice-over service is loading the TTS model, please retry in a moment")
	}
	return (*srv).StreamSynthesis(req, stream)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("starting adapter",
		"adapter", adapterinfo.Info.Name,
		"adapter_slug", adapterinfo.Info.Slug,
		"adapter_version", adapterinfo.Version(),
		"listen_addr", cfg.ListenAddr,
		"endpoint", cfg.Endpoint,
		"model", cfg.Model,
		"stretcher", cfg.Stretcher,
		"stub", cfg.UseStubSynthesizer,
	)

	recorder := telemetry.NewRecorder(logger)

	// Bind the port before loading the model so the manager's readiness
	// check succeeds while the TTS server warms up.
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}
	defer lis.Close()
	logger.Info("listener bound, port ready", "addr", lis.Addr().String())

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	serviceName := napv1.TextToSpeechService_ServiceDesc.ServiceName
	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	lazyService := &lazyTTSServer{}
	napv1.RegisterTextToSpeechServiceServer(grpcServer, lazyService)

	serverErr := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serverErr <- err
		}
	}()
	logger.Info("gRPC server started (NOT_SERVING while initializing)")

	metricsServer := startMetrics(cfg.MetricsAddr, recorder, logger, serverErr)

	svc, err := voiceover.FromConfig(cfg, logger, recorder)
	if err != nil {
		logger.Error("failed to build voice-over service", "error", err)
		os.Exit(1)
	}

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.RequestTimeout())
	err = svc.Load(loadCtx)
	cancelLoad()
	if err != nil {
		logger.Error("failed to load TTS model", "error", err)
		os.Exit(1)
	}

	lazyService.setServer(server.New(cfg, logger, svc, recorder))

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_SERVING)
	logger.Info("adapter ready to serve requests")

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping gRPC server")
		healthServer.SetServingStatus(serviceName, healthgrpc.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)

		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = metricsServer.Shutdown(shutdownCtx)
			cancel()
		}

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			logger.Warn("graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("server terminated with error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("adapter stopped")
}

// startMetrics serves the recorder's registry on addr. An empty addr disables it.
func startMetrics(addr string, recorder *telemetry.Recorder, logger *slog.Logger, errs chan<- error) *http.Server {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("metrics: %w", err)
		}
	}()
	logger.Info("metrics endpoint started", "addr", addr)
	return srv
}

