package clock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicUpdate(t *testing.T) {
	c := New()
	require.NoError(t, c.Update(5))
	assert.EqualValues(t, 5, c.Now())

	require.NoError(t, c.Update(3))
	assert.EqualValues(t, 5, c.Now(), "update must be monotone-safe")

	require.NoError(t, c.Update(10))
	assert.EqualValues(t, 10, c.Now())
}

func TestMonotonicConcurrentUpdate(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := uint64(1); i <= 100; i++ {
		wg.Add(1)
		go func(ts uint64) {
			defer wg.Done()
			_ = c.Update(ts)
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 100, c.Now())
}
