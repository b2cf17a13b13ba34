package kcommon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomInt(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		val := RandomInt(ctx, 8)
		assert.GreaterOrEqual(t, val, 0)
		assert.Less(t, val, 8)
	}
}

func TestRandomFloat64(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		val := RandomFloat64(ctx)
		assert.GreaterOrEqual(t, val, 0.0)
		assert.Less(t, val, 1.0)
	}
}

func TestRandomString(t *testing.T) {
	ctx := context.Background()
	str := RandomString(ctx, 8)
	assert.Equal(t, 8, len(str))
	for _, c := range str {
		assert.Contains(t, defaultCharset, string(c))
	}
}
