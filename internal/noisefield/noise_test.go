package noisefield

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxelcore/voxelcore/internal/coord"
)

func TestGenerateIsDeterministic(t *testing.T) {
	f := New(1234, DefaultConfig())
	cc := coord.ChunkCoord{X: 2, Y: 1, Z: -3}

	a := f.Generate(cc)
	b := f.Generate(cc)
	assert.Equal(t, a.Values, b.Values, "same seed and coord must produce bit-identical fields")
}

func TestGenerateDiffersBySeed(t *testing.T) {
	cc := coord.ChunkCoord{X: 0, Y: 0, Z: 0}
	a := New(1, DefaultConfig()).Generate(cc)
	b := New(2, DefaultConfig()).Generate(cc)
	assert.NotEqual(t, a.Values, b.Values)
}

func TestSurfaceHeightDeterministic(t *testing.T) {
	f := New(99, DefaultConfig())
	h1 := f.SurfaceHeight(17.5, -42.25)
	h2 := f.SurfaceHeight(17.5, -42.25)
	assert.Equal(t, h1, h2)
}

// Соседние чанки должны согласовываться в перекрывающихся мировых точках —
// это то, что делает мешер бесшовным между чанками (§4.2 "no seams").
func TestAdjacentChunksAgreeOnSharedFace(t *testing.T) {
	f := New(7, DefaultConfig())
	a := f.Generate(coord.ChunkCoord{X: 0, Y: 0, Z: 0})
	b := f.Generate(coord.ChunkCoord{X: 1, Y: 0, Z: 0})

	// последний слой (padding) чанка a по X должен совпадать с первым слоем чанка b.
	for y := 0; y < coord.PADDED; y++ {
		for z := 0; z < coord.PADDED; z++ {
			assert.Equal(t, a.At(coord.SIZE, y, z), b.At(0, y, z))
		}
	}
}
