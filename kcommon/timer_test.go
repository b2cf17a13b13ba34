package kcommon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	NewSystemTimeProvider().SetAsDefault()
	ch := make(chan interface{})
	ScheduleRun(10, func() {
		ch <- nil
	})
	<-ch
	assert.Equal(t, true, true)
}

func TestMockTimer(t *testing.T) {
	mockTime := NewMockTimeProvider().SetAsDefault()
	defer NewSystemTimeProvider().SetAsDefault()
	ch := make(chan interface{}, 1)
	ScheduleRun(100, func() {
		ch <- nil
	})
	task := <-mockTime.ChTask
	assert.Equal(t, 100, task.DelayMs)
	task.Cb()
	<-ch
}

func TestMockSleepAdvancesClock(t *testing.T) {
	mockTime := NewMockTimeProvider().SetAsDefault()
	defer NewSystemTimeProvider().SetAsDefault()
	SleepMs(context.Background(), 1000)
	SleepMs(context.Background(), 1000)
	assert.Equal(t, int64(2000), mockTime.GetMonoTimeMs())
	assert.Equal(t, int64(2000), mockTime.GetWallTimeMs())
}
