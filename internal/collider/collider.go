// Package collider реализует тест разделяющих осей AABB-против-треугольника
// с разрешением по минимальному вектору трансляции (MTV) поверх разреженного
// набора треугольников клиента.
package collider

import (
	"math"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/vec"
)

// TriangleSource — всё, что нужно коллайдеру от клиентского хранилища
// геометрии: список треугольников каждого из загруженных соседних чанков.
type TriangleSource interface {
	ChunksAround(center coord.ChunkCoord, radius int32) []coord.ChunkCoord
	Triangles(cc coord.ChunkCoord) []vec.Vec3
}

// AABB — выровненный по осям прямоугольный параллелепипед в мировых координатах.
type AABB struct {
	Center vec.Vec3
	Half   vec.Vec3
}

const (
	chunkRadius   = 1 // 27 чанков = радиус 1 вокруг текущего
	degenerateEps = 1e-10
	groundedDot   = 0.5
	maxIterations = 4
)

// Resolve выполняет до maxIterations итераций разрешения столкновений для
// одного суб-шага: переводит pos, гасит компоненту vel вдоль MTV, если она
// направлена внутрь поверхности, и сообщает, касается ли игрок земли.
func Resolve(pos vec.Vec3, vel *vec.Vec3, half vec.Vec3, soup TriangleSource) (newPos vec.Vec3, grounded bool) {
	center := coord.FromWorld(pos)
	chunks := soup.ChunksAround(center, chunkRadius)

	for iter := 0; iter < maxIterations; iter++ {
		box := AABB{Center: pos, Half: half}
		mtv, hit := deepestPenetration(box, chunks, soup)
		if !hit {
			break
		}
		pos = pos.Add(mtv)
		if d := vel.Dot(mtv.Normalized()); d < 0 {
			*vel = vel.Sub(mtv.Normalized().Scale(d))
		}
		if mtv.Normalized().Y > groundedDot {
			grounded = true
		}
	}
	return pos, grounded
}

// deepestPenetration ищет треугольник с минимальной глубиной проникновения
// среди всех загруженных соседних чанков и возвращает его MTV.
func deepestPenetration(box AABB, chunks []coord.ChunkCoord, soup TriangleSource) (vec.Vec3, bool) {
	found := false
	var best vec.Vec3
	bestDepth := math.Inf(1)

	for _, cc := range chunks {
		tris := soup.Triangles(cc)
		for i := 0; i+2 < len(tris); i += 3 {
			mtv, depth, ok := satTriangleBox(tris[i], tris[i+1], tris[i+2], box)
			if !ok {
				continue
			}
			if depth < bestDepth {
				bestDepth = depth
				best = mtv
				found = true
			}
		}
	}
	return best, found
}

// satTriangleBox выполняет SAT по 13 осям (3 нормали граней AABB, нормаль
// треугольника, 9 перекрёстных произведений рёбер треугольника с осями
// AABB). Возвращает MTV, направленный от треугольника к центру бокса, и
// глубину проникновения — минимальный зазор среди всех осей.
func satTriangleBox(a, b, c vec.Vec3, box AABB) (mtv vec.Vec3, depth float64, overlap bool) {
	edges := [3]vec.Vec3{b.Sub(a), c.Sub(b), a.Sub(c)}
	faceAxes := [3]vec.Vec3{{X: 1}, {Y: 1}, {Z: 1}}

	depth = math.Inf(1)
	var depthAxis vec.Vec3
	triCentroid := a.Add(b).Add(c).Scale(1.0 / 3.0)

	test := func(axis vec.Vec3) bool {
		if axis.LengthSq() < degenerateEps {
			return true // вырожденная ось не разделяет — пропускаем
		}
		axis = axis.Normalized()

		triMin, triMax := axisProject(axis, a, b, c)
		extent := math.Abs(box.Half.X*axis.X) + math.Abs(box.Half.Y*axis.Y) + math.Abs(box.Half.Z*axis.Z)
		centerProj := box.Center.Dot(axis)
		boxMin, boxMax := centerProj-extent, centerProj+extent

		if boxMax < triMin || triMax < boxMin {
			return false // разделяющая ось найдена — пересечения нет
		}

		o := math.Min(boxMax-triMin, triMax-boxMin)
		if o < depth {
			depth = o
			if box.Center.Dot(axis) < triCentroid.Dot(axis) {
				axis = axis.Scale(-1)
			}
			depthAxis = axis
		}
		return true
	}

	for _, axis := range faceAxes {
		if !test(axis) {
			return vec.Vec3{}, 0, false
		}
	}
	if !test(edges[0].Cross(edges[1])) {
		return vec.Vec3{}, 0, false
	}
	for _, fa := range faceAxes {
		for _, e := range edges {
			if !test(fa.Cross(e)) {
				return vec.Vec3{}, 0, false
			}
		}
	}

	return depthAxis.Scale(depth), depth, true
}

func axisProject(axis, a, b, c vec.Vec3) (min, max float64) {
	pa, pb, pc := a.Dot(axis), b.Dot(axis), c.Dot(axis)
	min = math.Min(pa, math.Min(pb, pc))
	max = math.Max(pa, math.Max(pb, pc))
	return
}
