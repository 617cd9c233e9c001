package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomAlphanumeric(t *testing.T) {
	s, err := RandomAlphanumeric(6)
	require.NoError(t, err)
	assert.Len(t, s, 6)
	assert.Regexp(t, "^[a-z0-9]{6}$", s)

	s, err = RandomAlphanumeric(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

// TestRandomAlphanumeric_Concurrent 并发生成不应重复
func TestRandomAlphanumeric_Concurrent(t *testing.T) {
	const workers, perWorker = 20, 25

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s, err := RandomAlphanumeric(16)
				if err != nil {
					t.Errorf("generate: %v", err)
					return
				}
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
