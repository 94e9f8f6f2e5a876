package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ConcurrentDrawsAreUnique(t *testing.T) {
	src := NewMemory()
	const draws = 200

	var (
		mu   sync.Mutex
		seen = make(map[uint64]struct{}, draws)
		wg   sync.WaitGroup
	)
	for range draws {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := src.Next(context.Background())
			require.NoError(t, err)
			mu.Lock()
			seen[n] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, draws)
	_, hasZero := seen[0]
	assert.False(t, hasZero, "ordinals start at 1")
}

func TestRedis_DefaultKey(t *testing.T) {
	src := NewRedis(nil, "")
	assert.Equal(t, DefaultRedisKey, src.key)
}
