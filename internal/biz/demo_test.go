package biz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xinkaiwang/workerblitz/kerror"
	"github.com/xinkaiwang/workerblitz/klogging"
)

func setupMockLogger(t *testing.T) *klogging.MockLogger {
	ml := klogging.NewMockLogger().SetAsDefault()
	t.Cleanup(func() {
		klogging.SetDefaultLogger(klogging.NewNullLogger())
	})
	return ml
}

// waitForEntries polls until the logger has at least want entries of the
// given type, or the deadline passes.
func waitForEntries(ml *klogging.MockLogger, logType string, want int) []*klogging.LogEntry {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entries := ml.GetEntriesByType(logType)
		if len(entries) >= want {
			return entries
		}
		time.Sleep(5 * time.Millisecond)
	}
	return ml.GetEntriesByType(logType)
}

func workerIds(entries []*klogging.LogEntry) []int {
	var ids []int
	for _, entry := range entries {
		for _, kv := range entry.Details {
			if kv.K == "worker" {
				ids = append(ids, kv.V.(int))
			}
		}
	}
	return ids
}

func TestStartSpawnsAllWorkers(t *testing.T) {
	ml := setupMockLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	demo := NewDemo(Config{WorkerCount: 8, HeartbeatMs: 1000})
	ke := demo.Start(ctx)
	assert.Nil(t, ke)

	entries := waitForEntries(ml, "WorkerStarted", 8)
	cancel()
	demo.Wait()

	assert.Equal(t, 8, len(entries))
	seen := map[int]bool{}
	for _, id := range workerIds(entries) {
		assert.False(t, seen[id], "worker id announced twice")
		seen[id] = true
	}
	for k := 0; k < 8; k++ {
		assert.True(t, seen[k], "missing worker id")
	}
	// each start line carries the literal "Started: <id>" text
	for _, entry := range entries {
		assert.Regexp(t, "^Started: [0-7]$", entry.Msg)
	}
}

func TestStartRejectsNonPositiveWorkerCount(t *testing.T) {
	setupMockLogger(t)
	for _, count := range []int{0, -1} {
		demo := NewDemo(Config{WorkerCount: count, HeartbeatMs: 1000})
		ke := demo.Start(context.Background())
		assert.NotNil(t, ke)
		assert.Equal(t, "InvalidWorkerCount", ke.GetType())
		assert.Equal(t, kerror.EC_INVALID_PARAMETER, ke.ErrorCode)
	}
}

func TestHeartbeatEmitsStillAlive(t *testing.T) {
	ml := setupMockLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	ticksBefore := heartbeatTicks()
	demo := NewDemo(Config{WorkerCount: 1, HeartbeatMs: 10})
	ke := demo.Start(ctx)
	assert.Nil(t, ke)

	entries := waitForEntries(ml, "Heartbeat", 3)
	cancel()
	demo.Wait()

	assert.GreaterOrEqual(t, len(entries), 3)
	for _, entry := range entries {
		assert.Equal(t, "Still alive!", entry.Msg)
	}
	assert.GreaterOrEqual(t, heartbeatTicks()-ticksBefore, int64(3))
}

func heartbeatTicks() int64 {
	count, _ := HeartbeatTicksMetric.GetTimeSequence(context.Background()).Get()
	return count
}

func TestWorkersRecordIterations(t *testing.T) {
	ml := setupMockLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	demo := NewDemo(Config{WorkerCount: 2, HeartbeatMs: 1000})
	assert.Nil(t, demo.Start(ctx))

	waitForEntries(ml, "WorkerStarted", 2)
	// give the busy loops a moment to flush at least one batch
	time.Sleep(50 * time.Millisecond)
	cancel()
	demo.Wait()

	for _, workerId := range []string{"0", "1"} {
		count, _ := WorkerIterationsMetric.GetTimeSequence(ctx, workerId).Get()
		assert.Greater(t, count, int64(0), fmt.Sprintf("worker %s never flushed a batch", workerId))
	}
}

func TestStartTwiceSpawnsFreshBatch(t *testing.T) {
	ml := setupMockLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	demo := NewDemo(Config{WorkerCount: 2, HeartbeatMs: 1000})
	assert.Nil(t, demo.Start(ctx))
	waitForEntries(ml, "WorkerStarted", 2)
	assert.Nil(t, demo.Start(ctx))

	entries := waitForEntries(ml, "WorkerStarted", 4)
	cancel()
	demo.Wait()

	// ids restart at 0 per invocation: {0,1} twice, not {0..3}
	assert.Equal(t, 4, len(entries))
	counts := map[int]int{}
	for _, id := range workerIds(entries) {
		counts[id]++
	}
	assert.Equal(t, map[int]int{0: 2, 1: 2}, counts)
}

func TestWorkersStopOnCancel(t *testing.T) {
	ml := setupMockLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	demo := NewDemo(Config{WorkerCount: 4, HeartbeatMs: 10})
	assert.Nil(t, demo.Start(ctx))
	waitForEntries(ml, "WorkerStarted", 4)

	cancel()
	done := make(chan struct{})
	go func() {
		demo.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not stop after cancel")
	}
	assert.Equal(t, 4, len(ml.GetEntriesByType("WorkerStopped")))
	assert.Equal(t, 1, len(ml.GetEntriesByType("HeartbeatStopped")))
}
