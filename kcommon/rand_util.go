package kcommon

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"strconv"
	"sync"

	"github.com/xinkaiwang/workerblitz/klogging"
)

const defaultCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SafeRand serializes access to a single seeded math/rand source. The seed
// comes from crypto/rand on first use.
type SafeRand struct {
	mu         sync.Mutex
	seededRand *rand.Rand
}

var safeRand SafeRand

type OpGetRand func(*rand.Rand)

func GetRandom(ctx context.Context, op OpGetRand) {
	safeRand.mu.Lock()
	defer safeRand.mu.Unlock()
	if safeRand.seededRand == nil {
		buf := make([]byte, 8)
		_, err := crypto_rand.Read(buf)
		if err != nil {
			klogging.Warning(ctx).WithError(err).Log("CryptoRandSeedFailed", "")
			safeRand.seededRand = rand.New(rand.NewSource(GetWallTimeMs()))
		} else {
			seed := int64(binary.BigEndian.Uint64(buf))
			safeRand.seededRand = rand.New(rand.NewSource(seed))
			klogging.Info(ctx).With("seed", strconv.FormatInt(seed, 16)).Log("CryptoRandSeedSucc", "")
		}
	}
	op(safeRand.seededRand)
}

func StringWithCharset(ctx context.Context, length int, charset string) string {
	b := make([]byte, length)
	GetRandom(ctx, func(r *rand.Rand) {
		for i := range b {
			b[i] = charset[r.Intn(len(charset))]
		}
	})
	return string(b)
}

func RandomString(ctx context.Context, length int) string {
	return StringWithCharset(ctx, length, defaultCharset)
}

// pseudo-random number in [0,max)
func RandomInt(ctx context.Context, max int) (ret int) {
	GetRandom(ctx, func(r *rand.Rand) {
		ret = r.Intn(max)
	})
	return
}

// pseudo-random number in [0,max)
func RandomUint64(ctx context.Context, max uint64) (ret uint64) {
	GetRandom(ctx, func(r *rand.Rand) {
		ret = r.Uint64() % max
	})
	return
}

// pseudo-random float in [0.0,1.0)
func RandomFloat64(ctx context.Context) (ret float64) {
	GetRandom(ctx, func(r *rand.Rand) {
		ret = r.Float64()
	})
	return
}
