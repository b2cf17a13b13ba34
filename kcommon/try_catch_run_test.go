package kcommon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xinkaiwang/workerblitz/kerror"
)

func TestTryCatchRun_NoPanic(t *testing.T) {
	ctx := context.Background()
	ke := TryCatchRun(ctx, func() {})
	assert.Nil(t, ke)
}

func TestTryCatchRun_KerrorPanic(t *testing.T) {
	ctx := context.Background()
	ke := TryCatchRun(ctx, func() {
		panic(kerror.Create("InvalidWorkerCount", "worker count must be positive").With("workerCount", 0))
	})
	assert.NotNil(t, ke)
	assert.Equal(t, "InvalidWorkerCount", ke.GetType())
}

func TestTryCatchRun_RuntimePanic(t *testing.T) {
	ctx := context.Background()
	div := func(x, y int) int {
		return x / y
	}
	ke := TryCatchRun(ctx, func() {
		div(1, 0)
	})
	assert.NotNil(t, ke)
	assert.IsType(t, &kerror.Kerror{}, ke)
	assert.NotEmpty(t, ke.Stack)
}
