package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/xinkaiwang/workerblitz/internal/biz"
	"github.com/xinkaiwang/workerblitz/kcommon"
	"github.com/xinkaiwang/workerblitz/klogging"
	"github.com/xinkaiwang/workerblitz/kmetrics"
	"github.com/xinkaiwang/workerblitz/ksysmetrics"
	"go.opencensus.io/metric/metricproducer"
)

var (
	// injected via -ldflags
	Version   = "dev"
	GitCommit = "none"
	BuildTime = "unknown"
)

func main() {
	ctx := context.Background()

	logLevel := kcommon.GetEnvString("LOG_LEVEL", "info")
	logFormat := kcommon.GetEnvString("LOG_FORMAT", "simple")

	logrusLogger := klogging.NewLogrusLogger(ctx)
	logrusLogger.SetConfig(ctx, logLevel, logFormat)
	klogging.SetDefaultLogger(logrusLogger)
	klogging.Info(ctx).With("logLevel", logLevel).With("logFormat", logFormat).Log("LogLevelSet", "")

	runId := kcommon.RandomString(ctx, 8)
	klogging.Info(ctx).With("version", Version).
		With("commit", GitCommit).
		With("buildTime", BuildTime).
		With("runId", runId).
		Log("Starting", "Starting workerblitz demo")

	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: "workerblitz",
	})
	if err != nil {
		klogging.Fatal(ctx).With("error", err).Log("PrometheusExporterError", "Failed to create Prometheus exporter")
	}

	metricproducer.GlobalManager().AddProducer(kmetrics.GetKmetricsRegistry())
	metricproducer.GlobalManager().AddProducer(ksysmetrics.GetRegistry())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ksysmetrics.StartSysMetricsCollector(ctx, 15*time.Second, Version)

	metricsPort := kcommon.GetEnvInt("METRICS_PORT", 9090)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", pe)
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", metricsPort),
		Handler: metricsMux,
	}

	go func() {
		klogging.Info(ctx).With("addr", metricsServer.Addr).Log("MetricsServerStarting", "Starting metrics server")
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			klogging.Error(ctx).With("error", err).Log("MetricsServerError", "Metrics server error")
		}
	}()

	cfg := biz.Config{
		WorkerCount: kcommon.GetEnvInt("WORKER_COUNT", biz.DefaultWorkerCount),
		HeartbeatMs: kcommon.GetEnvInt("HEARTBEAT_MS", biz.DefaultHeartbeatMs),
	}
	klogging.Info(ctx).With("worker_count", cfg.WorkerCount).
		With("heartbeat_ms", cfg.HeartbeatMs).
		With("metrics_port", metricsPort).
		Log("Config", "Worker demo configuration")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	demo := biz.NewDemo(cfg)
	if ke := demo.Start(ctx); ke != nil {
		klogging.Fatal(ctx).WithError(ke).Log("StartFailed", "Failed to start worker demo")
	}

	// block forever in normal operation; only a signal gets us past here
	sig := <-sigChan
	fmt.Printf("\nReceived signal %v, shutting down...\n", sig)

	cancel()
	demo.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		klogging.Error(ctx).With("error", err).Log("MetricsServerShutdownError", "Error shutting down metrics server")
	}

	klogging.Info(ctx).Log("Shutdown", "Worker demo stopped")
}
