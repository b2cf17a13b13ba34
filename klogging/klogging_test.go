package klogging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xinkaiwang/workerblitz/kerror"
)

func TestLoggerEntryString(t *testing.T) {
	SetDefaultLogger(&BasicLogger{LogLevel: DebugLevel})
	entry := Info(context.Background()).With("worker", 3)
	entry.LogType = "WorkerStarted"
	entry.Msg = "Started: 3"
	expected := "level=info, event=WorkerStarted, msg=Started: 3, worker=3"
	assert.Equal(t, expected, entry.String())
}

func TestMockLoggerCapture(t *testing.T) {
	ml := NewMockLogger().SetAsDefault()
	defer SetDefaultLogger(&BasicLogger{LogLevel: DebugLevel})

	Info(context.Background()).With("worker", 0).Log("WorkerStarted", "Started: 0")
	Info(context.Background()).Log("Heartbeat", "Still alive!")
	Debug(context.Background()).Log("ShouldBeFiltered", "below info threshold")

	assert.Equal(t, 2, len(ml.GetEntries()))
	started := ml.GetEntriesByType("WorkerStarted")
	assert.Equal(t, 1, len(started))
	assert.Equal(t, "Started: 0", started[0].Msg)
	assert.Equal(t, 0, len(ml.GetEntriesByType("ShouldBeFiltered")))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, InfoLevel, ParseLogLevel("info"))
	assert.Equal(t, WarnLevel, ParseLogLevel("Warning"))
	assert.Equal(t, VerboseLevel, ParseLogLevel("trace"))
	assert.Panics(t, func() { ParseLogLevel("loud") })
}

func TestWithErrorExpandsKerror(t *testing.T) {
	ml := NewMockLogger().SetAsDefault()
	defer SetDefaultLogger(&BasicLogger{LogLevel: DebugLevel})

	ke := kerror.Create("InvalidWorkerCount", "worker count must be positive").With("workerCount", 0)
	Error(context.Background()).WithError(ke).Log("StartFailed", "")

	entries := ml.GetEntriesByType("StartFailed")
	assert.Equal(t, 1, len(entries))
	dict := map[string]interface{}{}
	for _, kv := range entries[0].Details {
		dict[kv.K] = kv.V
	}
	assert.Equal(t, 0, dict["workerCount"])
	assert.Equal(t, "InvalidWorkerCount", dict["errorType"])
}

func TestFatalUsesOsProvider(t *testing.T) {
	SetDefaultLogger(NewNullLogger())
	defer SetDefaultLogger(&BasicLogger{LogLevel: DebugLevel})

	exitCode := -1
	mockOs := NewMockOsProvider().SetAsDefault()
	defer func() { currentOsProvider = NewSystemOsProvider() }()
	mockOs.ExitCb = func(code int) {
		exitCode = code
	}
	Fatal(context.Background()).Log("BadConfig", "cannot continue")
	assert.Equal(t, 1, exitCode)
}

func TestLogrusLoggerSetGlobal(t *testing.T) {
	logger := NewLogrusLogger(nil)
	logger.SetConfig(context.Background(), "debug", "simple")
	SetDefaultLogger(logger)
	defer SetDefaultLogger(&BasicLogger{LogLevel: DebugLevel})
	Info(context.Background()).With("x", 1).Log("EventXHappend", "this is a log message")
	assert.Equal(t, DebugLevel, logger.Level())
}
