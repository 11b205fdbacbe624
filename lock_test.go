package forecaster

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var a, b int
	counts := map[string]*int{"a": &a, "b": &b}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for key, cnt := range counts {
			wg.Add(1)
			go func(key string, cnt *int) {
				defer wg.Done()
				unlock := k.Lock(key)
				defer unlock()
				*cnt++
			}(key, cnt)
		}
	}
	wg.Wait()

	assert.Equal(t, 50, a)
	assert.Equal(t, 50, b)
	assert.Equal(t, 0, k.len())
}
