package chunkcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelcore/voxelcore/internal/coord"
)

func TestGetOrBuildBuildsOnceThenHitsCache(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	cc := coord.ChunkCoord{X: 1, Y: 2, Z: 3}
	calls := 0
	build := func(coord.ChunkCoord) []byte {
		calls++
		return []byte("chunk-bytes")
	}

	first := c.GetOrBuild(cc, build)
	second := c.GetOrBuild(cc, build)

	assert.Equal(t, "chunk-bytes", string(first))
	assert.Equal(t, "chunk-bytes", string(second))
	assert.Equal(t, 1, calls, "builder must run exactly once per coordinate")

	stats := c.Stats()
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 1, stats.Hits)
}

func TestPeekMissesWithoutBuilding(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	_, hit := c.Peek(coord.ChunkCoord{X: 9, Y: 9, Z: 9})
	assert.False(t, hit)
}

func TestPeekHitsAfterGetOrBuild(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	cc := coord.ChunkCoord{X: 4, Y: 0, Z: 0}
	c.GetOrBuild(cc, func(coord.ChunkCoord) []byte { return []byte("x") })

	b, hit := c.Peek(cc)
	assert.True(t, hit)
	assert.Equal(t, "x", string(b))
}

func TestInvalidateRemovesCachedEntry(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	cc := coord.ChunkCoord{X: 0, Y: 0, Z: 0}
	c.GetOrBuild(cc, func(coord.ChunkCoord) []byte { return []byte("y") })
	_, hit := c.Peek(cc)
	require.True(t, hit)

	c.Invalidate(cc)

	_, hit = c.Peek(cc)
	assert.False(t, hit, "invalidated coordinate must be rebuilt on next access")
}
