package ksysmetrics

import (
	"context"
	"runtime"
	"time"

	"go.opencensus.io/metric"
	"go.opencensus.io/metric/metricdata"
)

// Runtime gauges proving the process is healthy while the workers spin. All
// gauges are derived: the export pipeline reads the current snapshot values
// on every scrape; the collector goroutine refreshes the snapshot on its
// period.
var (
	registry *metric.Registry

	heapAllocGauge  *metric.Int64DerivedGauge
	stackInuseGauge *metric.Int64DerivedGauge
	sysMemGauge     *metric.Int64DerivedGauge

	goroutineGauge *metric.Int64DerivedGauge

	gcPauseGauge       *metric.Int64DerivedGauge
	gcIntervalGauge    *metric.Int64DerivedGauge
	gcCPUFractionGauge *metric.Float64DerivedGauge

	uptimeGauge *metric.Int64DerivedGauge

	currentHeapAlloc     int64
	currentStackInuse    int64
	currentSysMem        int64
	currentGoroutines    int64
	currentGCPause       int64
	currentGCInterval    int64
	currentGCCPUFraction float64

	startTime      = time.Now()
	currentVersion = "unknown"
)

// SetVersion sets the version label reported on the uptime gauge.
func SetVersion(version string) {
	if version != "" {
		currentVersion = version
	}
}

func init() {
	registry = metric.NewRegistry()

	heapAllocGauge, _ = registry.AddInt64DerivedGauge(
		"process_heap_bytes",
		metric.WithDescription("Process heap memory in bytes"),
		metric.WithUnit("bytes"))
	heapAllocGauge.UpsertEntry(func() int64 { return currentHeapAlloc })

	stackInuseGauge, _ = registry.AddInt64DerivedGauge(
		"process_stack_bytes",
		metric.WithDescription("Process stack memory in bytes"),
		metric.WithUnit("bytes"))
	stackInuseGauge.UpsertEntry(func() int64 { return currentStackInuse })

	sysMemGauge, _ = registry.AddInt64DerivedGauge(
		"process_sys_memory_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("bytes"))
	sysMemGauge.UpsertEntry(func() int64 { return currentSysMem })

	goroutineGauge, _ = registry.AddInt64DerivedGauge(
		"process_goroutines",
		metric.WithDescription("Number of goroutines"))
	goroutineGauge.UpsertEntry(func() int64 { return currentGoroutines })

	gcPauseGauge, _ = registry.AddInt64DerivedGauge(
		"process_gc_pause_total_ns",
		metric.WithDescription("Total GC pause time in nanoseconds"),
		metric.WithUnit("ns"))
	gcPauseGauge.UpsertEntry(func() int64 { return currentGCPause })

	gcIntervalGauge, _ = registry.AddInt64DerivedGauge(
		"process_gc_interval_ms",
		metric.WithDescription("Time since last GC in milliseconds"),
		metric.WithUnit("ms"))
	gcIntervalGauge.UpsertEntry(func() int64 { return currentGCInterval })

	gcCPUFractionGauge, _ = registry.AddFloat64DerivedGauge(
		"process_gc_cpu_fraction",
		metric.WithDescription("Fraction of CPU time used by GC"))
	gcCPUFractionGauge.UpsertEntry(func() float64 { return currentGCCPUFraction })
}

// StartSysMetricsCollector refreshes the gauges every interval until ctx
// gets canceled. version is reported as a label on the uptime gauge.
func StartSysMetricsCollector(ctx context.Context, interval time.Duration, version string) {
	SetVersion(version)

	uptimeGauge, _ = registry.AddInt64DerivedGauge(
		"process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("seconds"),
		metric.WithLabelKeys("version"))
	uptimeGauge.UpsertEntry(func() int64 {
		return int64(time.Since(startTime).Seconds())
	}, metricdata.NewLabelValue(currentVersion))

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collectMetrics()
			}
		}
	}()
}

func collectMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	currentHeapAlloc = int64(memStats.HeapAlloc)
	currentStackInuse = int64(memStats.StackInuse)
	currentSysMem = int64(memStats.Sys)

	currentGoroutines = int64(runtime.NumGoroutine())

	currentGCPause = int64(memStats.PauseTotalNs)
	currentGCInterval = int64(memStats.LastGC / 1e6)
	currentGCCPUFraction = memStats.GCCPUFraction
}

// GetRegistry returns the sysmetrics registry for producer registration.
func GetRegistry() *metric.Registry {
	return registry
}
