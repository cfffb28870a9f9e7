// Package coord определяет адресацию чанков в мире изоповерхности.
package coord

import (
	"math"

	"github.com/voxelcore/voxelcore/internal/vec"
)

// SIZE — сторона куба чанка в мировых единицах.
const SIZE = 32

// Margin — запас сэмплов сверх SIZE, чтобы мешер мог интерполировать через
// верхнюю грань без швов с соседними чанками.
const Margin = 1

// PADDED — число сэмплов на ось в скалярном поле чанка.
const PADDED = SIZE + Margin

// ChunkCoord — целочисленная тройка, адресующая чанк размером SIZE³.
type ChunkCoord struct {
	X, Y, Z int32
}

// FromWorld возвращает координату чанка, которому принадлежит мировая точка p.
func FromWorld(p vec.Vec3) ChunkCoord {
	return ChunkCoord{
		X: int32(math.Floor(p.X / SIZE)),
		Y: int32(math.Floor(p.Y / SIZE)),
		Z: int32(math.Floor(p.Z / SIZE)),
	}
}

// Origin возвращает мировое положение угла (0,0,0) чанка.
func (c ChunkCoord) Origin() vec.Vec3 {
	return vec.Vec3{X: float64(c.X) * SIZE, Y: float64(c.Y) * SIZE, Z: float64(c.Z) * SIZE}
}

// Add складывает координаты чанков покомпонентно — удобно для перебора окна.
func (c ChunkCoord) Add(dx, dy, dz int32) ChunkCoord {
	return ChunkCoord{c.X + dx, c.Y + dy, c.Z + dz}
}

// Hash — мешающая функция для использования как ключ в кастомных структурах;
// стандартная map в Go не нуждается в ней (ChunkCoord уже comparable), но
// сторонние кеши (ristretto) требуют предсказуемого ключа-строки/числа.
func (c ChunkCoord) Hash() uint64 {
	h := uint64(uint32(c.X)) * 0x9e3779b185ebca87
	h ^= uint64(uint32(c.Y)) * 0xc2b2ae3d27d4eb4f
	h ^= uint64(uint32(c.Z)) * 0x165667b19e3779f9
	h ^= h >> 33
	return h
}

// InRadius проверяет, что c лежит в кубоиде радиуса (rxz, ry, rxz) вокруг center.
func (c ChunkCoord) InRadius(center ChunkCoord, rxz, ry int32) bool {
	return abs32(c.X-center.X) <= rxz && abs32(c.Y-center.Y) <= ry && abs32(c.Z-center.Z) <= rxz
}

// OutsideRadius — обратное InRadius с запасом margin по любой оси; используется
// политикой выгрузки, которая держит чанки чуть дольше радиуса стриминга.
func (c ChunkCoord) OutsideRadius(center ChunkCoord, rxz, ry, margin int32) bool {
	return abs32(c.X-center.X) > rxz+margin ||
		abs32(c.Y-center.Y) > ry+margin ||
		abs32(c.Z-center.Z) > rxz+margin
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
