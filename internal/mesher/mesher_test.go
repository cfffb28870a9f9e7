package mesher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/noisefield"
)

func TestMarchEmptyFieldProducesNoTriangles(t *testing.T) {
	field := &noisefield.ScalarField{Coord: coord.ChunkCoord{}}
	for x := 0; x < coord.PADDED; x++ {
		for y := 0; y < coord.PADDED; y++ {
			for z := 0; z < coord.PADDED; z++ {
				field.Values[x][y][z] = 1 // всюду снаружи поверхности
			}
		}
	}
	m := March(field)
	assert.Empty(t, m.Indices)
}

func TestMarchFlatPlaneProducesTriangles(t *testing.T) {
	field := &noisefield.ScalarField{Coord: coord.ChunkCoord{}}
	for x := 0; x < coord.PADDED; x++ {
		for y := 0; y < coord.PADDED; y++ {
			for z := 0; z < coord.PADDED; z++ {
				if y < 16 {
					field.Values[x][y][z] = -1 // внутри поверхности
				} else {
					field.Values[x][y][z] = 1
				}
			}
		}
	}
	m := March(field)
	assert.NotEmpty(t, m.Indices)
	assert.True(t, len(m.Indices)%3 == 0)

	// вершины пересечения лежат на y=15.5 (между -1 при y=15 и +1 при y=16).
	for _, idx := range m.Indices {
		assert.InDelta(t, 16.0, m.Vertices[idx].Pos.Y, 1.0)
	}
}

func TestMarchDeterministic(t *testing.T) {
	f := noisefield.New(55, noisefield.DefaultConfig())
	sf := f.Generate(coord.ChunkCoord{X: 0, Y: 0, Z: 0})
	a := March(sf)
	b := March(sf)
	assert.Equal(t, a.Indices, b.Indices)
	assert.Equal(t, len(a.Vertices), len(b.Vertices))
}

func TestMarchNormalsAreUnitLength(t *testing.T) {
	f := noisefield.New(3, noisefield.DefaultConfig())
	sf := f.Generate(coord.ChunkCoord{X: 0, Y: 2, Z: 0})
	m := March(sf)
	for _, v := range m.Vertices {
		l := v.Normal.Length()
		if l == 0 {
			continue // изолированная вершина без накопленных граней — не должно возникать, но не валит тест
		}
		assert.InDelta(t, 1.0, l, 1e-6)
	}
}
