package biz

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/xinkaiwang/workerblitz/kcommon"
	"github.com/xinkaiwang/workerblitz/kerror"
	"github.com/xinkaiwang/workerblitz/klogging"
	"github.com/xinkaiwang/workerblitz/kmetrics"
)

var (
	WorkerIterationsMetric = kmetrics.CreateKmetric(
		context.Background(),
		"worker_iterations",
		"Busy-loop iterations completed per worker",
		[]string{"worker"},
	).CountOnly()
	HeartbeatTicksMetric = kmetrics.CreateKmetric(
		context.Background(),
		"heartbeat_ticks",
		"Liveness heartbeats emitted by the coordinator",
		[]string{},
	).CountOnly()
)

const (
	DefaultWorkerCount = 8
	DefaultHeartbeatMs = 1000

	// iterationBatch is how many random draws a worker does between ctx
	// checks and metric flushes. The loop body must stay cheap; counting
	// every single draw through an atomic would dominate the draw itself.
	iterationBatch = 1024
)

type Config struct {
	WorkerCount int
	HeartbeatMs int
}

func NewConfig() Config {
	return Config{
		WorkerCount: DefaultWorkerCount,
		HeartbeatMs: DefaultHeartbeatMs,
	}
}

// Demo fans out WorkerCount independent CPU-bound workers and emits a
// periodic liveness heartbeat from the coordinating goroutine. Workers share
// no mutable state with each other; each owns its rng and its stack. Nothing
// stops them except ctx cancellation.
type Demo struct {
	cfg Config
	wg  sync.WaitGroup
}

func NewDemo(cfg Config) *Demo {
	return &Demo{
		cfg: cfg,
	}
}

// Start spawns the workers (ids assigned 0..WorkerCount-1 in spawn-request
// order) and then the heartbeat loop. Start may be called again: each call
// spawns a fresh batch with ids restarting at 0, plus its own heartbeat.
// Returns EC_INVALID_PARAMETER when WorkerCount < 1.
func (demo *Demo) Start(ctx context.Context) *kerror.Kerror {
	if demo.cfg.WorkerCount < 1 {
		return kerror.Create("InvalidWorkerCount", "worker count must be positive").
			With("workerCount", demo.cfg.WorkerCount).
			WithErrorCode(kerror.EC_INVALID_PARAMETER)
	}
	if demo.cfg.HeartbeatMs <= 0 {
		demo.cfg.HeartbeatMs = DefaultHeartbeatMs
	}

	for i := 0; i < demo.cfg.WorkerCount; i++ {
		workerId := i
		demo.wg.Add(1)
		go func() {
			defer demo.wg.Done()
			ke := kcommon.TryCatchRun(ctx, func() {
				demo.runWorker(ctx, workerId)
			})
			if ke != nil {
				// no restart; failure semantics for a dead worker are none
				klogging.Error(ctx).WithError(ke).With("worker", workerId).Log("WorkerPanic", "worker stopped by panic")
			}
		}()
	}

	demo.wg.Add(1)
	go func() {
		defer demo.wg.Done()
		demo.runHeartbeat(ctx)
	}()
	return nil
}

// runWorker announces itself, then spins drawing pseudo-random floats until
// ctx cancellation. The rng is worker-local so the hot loop touches no
// shared state; only the spawn-time seed draw goes through the shared
// seeded source.
func (demo *Demo) runWorker(ctx context.Context, workerId int) {
	klogging.Info(ctx).With("worker", workerId).Log("WorkerStarted", fmt.Sprintf("Started: %d", workerId))
	rng := rand.New(rand.NewSource(int64(kcommon.RandomUint64(ctx, 1<<63))))
	seq := WorkerIterationsMetric.GetTimeSequence(ctx, strconv.Itoa(workerId))
	for {
		select {
		case <-ctx.Done():
			klogging.Info(ctx).With("worker", workerId).Log("WorkerStopped", "")
			return
		default:
			for i := 0; i < iterationBatch; i++ {
				rng.Float64()
			}
			seq.Add(iterationBatch)
		}
	}
}

// runHeartbeat emits the liveness line once per period until ctx
// cancellation. Sleep goes through kcommon so tests can drive the clock.
func (demo *Demo) runHeartbeat(ctx context.Context) {
	seq := HeartbeatTicksMetric.GetTimeSequence(ctx)
	for {
		kcommon.SleepMs(ctx, demo.cfg.HeartbeatMs)
		if ctx.Err() != nil {
			klogging.Info(ctx).Log("HeartbeatStopped", "")
			return
		}
		klogging.Info(ctx).Log("Heartbeat", "Still alive!")
		seq.Add(1)
	}
}

// Wait blocks until every goroutine spawned by Start has exited, which only
// happens after ctx cancellation.
func (demo *Demo) Wait() {
	demo.wg.Wait()
}
