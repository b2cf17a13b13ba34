package kcommon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvInt(t *testing.T) {
	t.Setenv("WORKER_COUNT", "12")
	assert.Equal(t, 12, GetEnvInt("WORKER_COUNT", 8))
	assert.Equal(t, 8, GetEnvInt("WORKER_COUNT_MISSING", 8))
	t.Setenv("WORKER_COUNT", "not-a-number")
	assert.Equal(t, 8, GetEnvInt("WORKER_COUNT", 8))
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, "debug", GetEnvString("LOG_LEVEL", "info"))
	assert.Equal(t, "info", GetEnvString("LOG_LEVEL_MISSING", "info"))
}
