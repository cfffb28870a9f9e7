package collider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/vec"
)

// fakeSoup — минимальная реализация TriangleSource поверх статической карты
// мировых треугольников по чанку, для изоляции коллайдера от TriSoup.
type fakeSoup struct {
	tris map[coord.ChunkCoord][]vec.Vec3
}

func (f *fakeSoup) ChunksAround(center coord.ChunkCoord, radius int32) []coord.ChunkCoord {
	var out []coord.ChunkCoord
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				cc := center.Add(dx, dy, dz)
				if _, ok := f.tris[cc]; ok {
					out = append(out, cc)
				}
			}
		}
	}
	return out
}

func (f *fakeSoup) Triangles(cc coord.ChunkCoord) []vec.Vec3 {
	return f.tris[cc]
}

// flatFloor строит un chunk-sized flat quad (two triangles) at y=0 covering
// the full XZ extent of chunk (0,0,0).
func flatFloor() *fakeSoup {
	s := float64(coord.SIZE)
	a := vec.Vec3{X: 0, Y: 0, Z: 0}
	b := vec.Vec3{X: s, Y: 0, Z: 0}
	c := vec.Vec3{X: s, Y: 0, Z: s}
	d := vec.Vec3{X: 0, Y: 0, Z: s}
	return &fakeSoup{tris: map[coord.ChunkCoord][]vec.Vec3{
		{X: 0, Y: 0, Z: 0}: {a, b, c, a, c, d},
	}}
}

func TestResolveStopsSmallPenetrationAndReportsGrounded(t *testing.T) {
	soup := flatFloor()
	half := vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	// Игрок отдыхал бы на y=0.5 (низ бокса на y=0); суб-шаг чуть протолкнул
	// его ниже уровня отдыха.
	pos := vec.Vec3{X: 16, Y: 0.45, Z: 16}
	vel := vec.Vec3{X: 0, Y: -2, Z: 0}

	newPos, grounded := Resolve(pos, &vel, half, soup)

	assert.True(t, grounded)
	assert.InDelta(t, 0.5, newPos.Y, 1e-9)
	assert.InDelta(t, 0, vel.Y, 1e-9, "downward velocity component into the floor must be killed")
}

func TestResolveNoOverlapIsNoOp(t *testing.T) {
	soup := flatFloor()
	half := vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	pos := vec.Vec3{X: 16, Y: 5, Z: 16}
	vel := vec.Vec3{X: 1, Y: -2, Z: 0}

	newPos, grounded := Resolve(pos, &vel, half, soup)

	assert.False(t, grounded)
	assert.Equal(t, pos, newPos)
	assert.Equal(t, vec.Vec3{X: 1, Y: -2, Z: 0}, vel)
}

func TestResolveNoTriangleSourceForChunkIsSafe(t *testing.T) {
	soup := &fakeSoup{tris: map[coord.ChunkCoord][]vec.Vec3{}}
	half := vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	pos := vec.Vec3{X: 0, Y: 0, Z: 0}
	vel := vec.Vec3{}

	newPos, grounded := Resolve(pos, &vel, half, soup)
	assert.Equal(t, pos, newPos)
	assert.False(t, grounded)
}

func TestSatTriangleBoxSeparated(t *testing.T) {
	box := AABB{Center: vec.Vec3{X: 100, Y: 100, Z: 100}, Half: vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}}
	_, _, overlap := satTriangleBox(
		vec.Vec3{X: 0, Y: 0, Z: 0},
		vec.Vec3{X: 1, Y: 0, Z: 0},
		vec.Vec3{X: 0, Y: 0, Z: 1},
		box,
	)
	assert.False(t, overlap)
}
