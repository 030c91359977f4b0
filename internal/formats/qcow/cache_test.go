package qcow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictAllCacheTransparency(t *testing.T) {
	c := newBoundedCache[int, int](16, 4) // capacity 4
	for i := 0; i < 4; i++ {
		c.Add(i, i*10)
	}
	for i := 0; i < 4; i++ {
		v, ok := c.Get(i)
		require.True(t, ok)
		assert.Equal(t, i*10, v)
	}
}

func TestEvictAllCachePurgesWholesaleOnOverflow(t *testing.T) {
	c := newBoundedCache[int, int](8, 4) // capacity 2
	c.Add(1, 10)
	c.Add(2, 20)
	c.Add(3, 30) // overflow: purges 1 and 2, then inserts 3

	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(2)
	assert.False(t, ok)
	v, ok := c.Get(3)
	require.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestEvictAllCacheMinimumCapacityOne(t *testing.T) {
	c := newBoundedCache[int, int](3, 4) // would compute to 0, floored to 1
	assert.Equal(t, 1, c.capacity)
}
