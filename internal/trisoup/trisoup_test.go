package trisoup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/vec"
)

func sampleChunkMesh(cc coord.ChunkCoord) *mesher.Mesh {
	return &mesher.Mesh{
		Coord: cc,
		Vertices: []mesher.Vertex{
			{Pos: vec.Vec3{X: 0, Y: 0, Z: 0}},
			{Pos: vec.Vec3{X: 1, Y: 0, Z: 0}},
			{Pos: vec.Vec3{X: 0, Y: 0, Z: 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func TestInsertOffsetsVerticesByChunkOrigin(t *testing.T) {
	soup := New()
	cc := coord.ChunkCoord{X: 1, Y: 0, Z: 0}
	soup.Insert(sampleChunkMesh(cc))

	assert.True(t, soup.Has(cc))
	tris := soup.Triangles(cc)
	assert.Len(t, tris, 3)
	assert.InDelta(t, float64(coord.SIZE), tris[0].X, 1e-9, "vertex must be shifted by the chunk's world origin")
}

func TestHasFalseForMissingChunk(t *testing.T) {
	soup := New()
	assert.False(t, soup.Has(coord.ChunkCoord{X: 5, Y: 5, Z: 5}))
}

func TestChunksAroundReturnsOnlyPresentNeighbors(t *testing.T) {
	soup := New()
	center := coord.ChunkCoord{}
	soup.Insert(sampleChunkMesh(center))
	soup.Insert(sampleChunkMesh(center.Add(1, 0, 0)))

	around := soup.ChunksAround(center, 1)
	assert.Len(t, around, 2)
}

func TestUnloadDropsChunksOutsideRadius(t *testing.T) {
	soup := New()
	near := coord.ChunkCoord{X: 0, Y: 0, Z: 0}
	far := coord.ChunkCoord{X: 50, Y: 0, Z: 0}
	soup.Insert(sampleChunkMesh(near))
	soup.Insert(sampleChunkMesh(far))

	soup.Unload(near, 2, 2)

	assert.True(t, soup.Has(near))
	assert.False(t, soup.Has(far))
	assert.Equal(t, 1, soup.Len())
}

func TestInsertReplacesExistingChunk(t *testing.T) {
	soup := New()
	cc := coord.ChunkCoord{}
	soup.Insert(sampleChunkMesh(cc))
	assert.Equal(t, 1, soup.Len())

	soup.Insert(sampleChunkMesh(cc))
	assert.Equal(t, 1, soup.Len(), "re-inserting the same chunk must replace, not append")
}
