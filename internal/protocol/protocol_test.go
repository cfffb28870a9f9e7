package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/vec"
)

func sampleMesh() *mesher.Mesh {
	return &mesher.Mesh{
		Coord: coord.ChunkCoord{X: 1, Y: -2, Z: 3},
		Vertices: []mesher.Vertex{
			{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}, Normal: vec.Vec3{X: 0, Y: 1, Z: 0}},
			{Pos: vec.Vec3{X: 4, Y: 5, Z: 6}, Normal: vec.Vec3{X: 1, Y: 0, Z: 0}},
			{Pos: vec.Vec3{X: 7, Y: 8, Z: 9}, Normal: vec.Vec3{X: 0, Y: 0, Z: 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func TestChunkDataRoundTrip(t *testing.T) {
	m := sampleMesh()
	body := EncodeChunkData(m)

	tag, payload, err := Body(body)
	require.NoError(t, err)
	assert.Equal(t, TagChunkData, tag)

	decoded, err := DecodeChunkData(payload)
	require.NoError(t, err)
	assert.Equal(t, m.Coord, decoded.Coord)
	require.Len(t, decoded.Vertices, len(m.Vertices))
	for i := range m.Vertices {
		assert.InDelta(t, m.Vertices[i].Pos.X, decoded.Vertices[i].Pos.X, 1e-5)
		assert.InDelta(t, m.Vertices[i].Pos.Y, decoded.Vertices[i].Pos.Y, 1e-5)
		assert.InDelta(t, m.Vertices[i].Pos.Z, decoded.Vertices[i].Pos.Z, 1e-5)
	}
	assert.Equal(t, m.Indices, decoded.Indices)
}

func TestChunkDataTruncated(t *testing.T) {
	m := sampleMesh()
	body := EncodeChunkData(m)

	for cut := 1; cut < len(body); cut++ {
		_, payload, err := Body(body[:cut])
		if err != nil {
			continue // обрезка внутри самого тега
		}
		_, err = DecodeChunkData(payload)
		assert.Error(t, err, "cut=%d should fail to decode", cut)
	}
}

func TestPlayerMoveRoundTrip(t *testing.T) {
	mv := PlayerMove{X: 1.5, Y: -2.5, Z: 3.25, Yaw: 0.5, Pitch: -0.25}
	body := EncodePlayerMove(mv)

	tag, payload, err := Body(body)
	require.NoError(t, err)
	assert.Equal(t, TagPlayerMove, tag)

	decoded, err := DecodePlayerMove(payload)
	require.NoError(t, err)
	assert.Equal(t, mv, decoded)
}

func TestSpawnPositionRoundTrip(t *testing.T) {
	pos := vec.Vec3{X: 10, Y: 64, Z: -10}
	body := EncodeSpawnPosition(pos)

	tag, payload, err := Body(body)
	require.NoError(t, err)
	assert.Equal(t, TagSpawnPosition, tag)

	decoded, err := DecodeSpawnPosition(payload)
	require.NoError(t, err)
	assert.True(t, pos.Equals(decoded, 1e-5))
}

func TestPlayerJoinRoundTrip(t *testing.T) {
	body := EncodePlayerJoin("skywalker")

	tag, payload, err := Body(body)
	require.NoError(t, err)
	assert.Equal(t, TagPlayerJoin, tag)

	name, err := DecodePlayerJoin(payload)
	require.NoError(t, err)
	assert.Equal(t, "skywalker", name)
}

func TestBodyUnknownTag(t *testing.T) {
	_, _, err := Body([]byte{0xFF})
	assert.Error(t, err)
}

func TestBodyEmptyBuffer(t *testing.T) {
	_, _, err := Body(nil)
	assert.Error(t, err)
}

func TestPlayerJoinOverflow(t *testing.T) {
	// счётчик длины врёт про 1000 байт имени при пустом остатке буфера
	body := []byte{byte(TagPlayerJoin), 0, 0, 0x03, 0xE8}
	_, payload, err := Body(body)
	require.NoError(t, err)
	_, err = DecodePlayerJoin(payload)
	assert.Error(t, err)
}
