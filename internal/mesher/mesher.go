// Package mesher извлекает триангулированную изоповерхность из плотного
// скалярного поля чанка методом марширующих кубов.
package mesher

import (
	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/noisefield"
	"github.com/voxelcore/voxelcore/internal/vec"
)

// degenerateEps — треугольники, у которых все три вершины совпадают в
// пределах этого допуска, отбрасываются как вырожденные.
const degenerateEps = 1e-5

// Vertex — позиция и нормаль в локальном для чанка пространстве [0, SIZE].
type Vertex struct {
	Pos    vec.Vec3
	Normal vec.Vec3
}

// Mesh — результат извлечения поверхности: индексированный список
// треугольников, CCW при взгляде снаружи поверхности.
type Mesh struct {
	Coord    coord.ChunkCoord
	Vertices []Vertex
	Indices  []uint32
}

// edgeKey именует ребро решётки нижним углом (x,y,z) и осью edge (0=X, 1=Y,
// 2=Z), так что интерполированная вершина на ребре кешируется один раз и
// соседние ячейки разделяют её (нужно для слитной нормали и компактности).
type edgeKey struct {
	x, y, z int
	edge    int
}

// March строит Mesh из плотного поля field методом марширующих кубов.
// Поле должно быть насэмплировано с запасом PADDED, чтобы ячейки у верхней
// грани могли интерполировать через границу и давать бесшовный стык с
// независимо построенными соседними чанками.
func March(field *noisefield.ScalarField) *Mesh {
	m := &Mesh{Coord: field.Coord}
	vertexIndex := make(map[edgeKey]uint32)
	accumNormal := make(map[uint32]vec.Vec3)

	getOrAddVertex := func(x, y, z, edge int, p vec.Vec3) uint32 {
		key := edgeKey{x, y, z, edge}
		if idx, ok := vertexIndex[key]; ok {
			return idx
		}
		idx := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, Vertex{Pos: p})
		vertexIndex[key] = idx
		return idx
	}

	for x := 0; x < coord.SIZE; x++ {
		for y := 0; y < coord.SIZE; y++ {
			for z := 0; z < coord.SIZE; z++ {
				var corners [8]float32
				for i, off := range cornerOffset {
					corners[i] = field.At(x+off[0], y+off[1], z+off[2])
				}

				mask := 0
				for i, v := range corners {
					if v < 0 {
						mask |= 1 << uint(i)
					}
				}
				if edgeTable[mask] == 0 {
					continue
				}

				var edgeVert [12]int // индекс вершины в m.Vertices, -1 если ребро не используется
				for i := range edgeVert {
					edgeVert[i] = -1
				}
				for e := 0; e < 12; e++ {
					if edgeTable[mask]&(1<<uint(e)) == 0 {
						continue
					}
					c0, c1 := edgeConnection[e][0], edgeConnection[e][1]
					p0 := cellCorner(x, y, z, c0)
					p1 := cellCorner(x, y, z, c1)
					t := interpT(corners[c0], corners[c1])
					pos := vec.Lerp(p0, p1, t)
					o0, o1 := cornerOffset[c0], cornerOffset[c1]
					axis := e % 2 // рёбра 0..7 чередуют X и Y, 8..11 идут по Z
					if e >= 8 {
						axis = 2
					}
					edgeVert[e] = int(getOrAddVertex(x+min(o0[0], o1[0]), y+min(o0[1], o1[1]), z+min(o0[2], o1[2]), axis, pos))
				}

				tris := triangleTable[mask]
				for i := 0; i+2 < 16 && tris[i] != -1; i += 3 {
					ia := uint32(edgeVert[tris[i]])
					ib := uint32(edgeVert[tris[i+1]])
					ic := uint32(edgeVert[tris[i+2]])
					if isDegenerate(m.Vertices[ia].Pos, m.Vertices[ib].Pos, m.Vertices[ic].Pos) {
						continue
					}
					n := faceNormal(m.Vertices[ia].Pos, m.Vertices[ib].Pos, m.Vertices[ic].Pos)
					accumNormal[ia] = accumNormal[ia].Add(n)
					accumNormal[ib] = accumNormal[ib].Add(n)
					accumNormal[ic] = accumNormal[ic].Add(n)
					m.Indices = append(m.Indices, ia, ib, ic)
				}
			}
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = accumNormal[uint32(i)].Normalized()
	}
	return m
}

func cellCorner(x, y, z, corner int) vec.Vec3 {
	off := cornerOffset[corner]
	return vec.Vec3{X: float64(x + off[0]), Y: float64(y + off[1]), Z: float64(z + off[2])}
}

// interpT находит параметр t на [0,1], где линейная интерполяция между a и b
// пересекает нулевой уровень.
func interpT(a, b float32) float64 {
	if d := float64(b - a); d != 0 {
		t := -float64(a) / d
		if t < 0 {
			return 0
		}
		if t > 1 {
			return 1
		}
		return t
	}
	return 0.5
}

func faceNormal(a, b, c vec.Vec3) vec.Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}

func isDegenerate(a, b, c vec.Vec3) bool {
	return a.Equals(b, degenerateEps) && b.Equals(c, degenerateEps)
}
