package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/protocol"
	"github.com/voxelcore/voxelcore/internal/vec"
	"github.com/voxelcore/voxelcore/internal/workerpool"
)

func encodedChunk(cc coord.ChunkCoord) []byte {
	m := &mesher.Mesh{
		Coord: cc,
		Vertices: []mesher.Vertex{
			{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}, Normal: vec.Vec3{Y: 1}},
			{Pos: vec.Vec3{X: 1, Y: 0, Z: 0}, Normal: vec.Vec3{Y: 1}},
			{Pos: vec.Vec3{X: 0, Y: 0, Z: 1}, Normal: vec.Vec3{Y: 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
	_, payload, err := protocol.Body(protocol.EncodeChunkData(m))
	if err != nil {
		panic(err)
	}
	return payload
}

func waitUntilPendingZero(t *testing.T, in *Intake) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if in.Pending() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("decode never finished")
}

func TestOnChunkDataDecodesOffThreadThenDrains(t *testing.T) {
	pool := workerpool.New(2)
	t.Cleanup(pool.Stop)
	in := New(pool)

	in.OnChunkData(encodedChunk(coord.ChunkCoord{X: 1}))
	waitUntilPendingZero(t, in)

	meshes := in.Drain()
	require.Len(t, meshes, 1)
	assert.Equal(t, coord.ChunkCoord{X: 1}, meshes[0].Coord)
	assert.Empty(t, in.Drain(), "a second drain before new data arrives must be empty")
}

func TestDrainRespectsMaxPerFrame(t *testing.T) {
	pool := workerpool.New(2)
	t.Cleanup(pool.Stop)
	in := New(pool)
	in.MaxPerFrame = 2

	for i := int32(0); i < 5; i++ {
		in.OnChunkData(encodedChunk(coord.ChunkCoord{X: i}))
	}
	waitUntilPendingZero(t, in)

	first := in.Drain()
	assert.Len(t, first, 2)
	second := in.Drain()
	assert.Len(t, second, 2)
	third := in.Drain()
	assert.Len(t, third, 1)
}

func TestOnChunkDataSilentlyDropsCorruptPayload(t *testing.T) {
	pool := workerpool.New(1)
	t.Cleanup(pool.Stop)
	in := New(pool)

	in.OnChunkData([]byte{0xFF, 0xFF, 0xFF})
	waitUntilPendingZero(t, in)

	assert.Empty(t, in.Drain())
}
