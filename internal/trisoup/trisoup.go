// Package trisoup хранит разреженный, индексированный по чанкам набор
// мировых треугольников на клиенте — единственный вход коллайдера.
package trisoup

import (
	"sync"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/vec"
)

// TriSoup — потокобезопасная карта ChunkCoord → плоский список вершин
// мировых треугольников (каждые три — один треугольник).
type TriSoup struct {
	mu     sync.RWMutex
	tris   map[coord.ChunkCoord][]vec.Vec3
}

// New создаёт пустой TriSoup.
func New() *TriSoup {
	return &TriSoup{tris: make(map[coord.ChunkCoord][]vec.Vec3)}
}

// Insert разворачивает индексированный меш в явные мировые треугольники,
// смещённые на coord*SIZE, и вставляет (или заменяет) запись чанка.
func (t *TriSoup) Insert(m *mesher.Mesh) {
	offset := m.Coord.Origin()
	flat := make([]vec.Vec3, 0, len(m.Indices))
	for _, idx := range m.Indices {
		flat = append(flat, m.Vertices[idx].Pos.Add(offset))
	}
	t.mu.Lock()
	t.tris[m.Coord] = flat
	t.mu.Unlock()
}

// Has сообщает, присутствует ли чанк в наборе (используется воротами спауна).
func (t *TriSoup) Has(cc coord.ChunkCoord) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.tris[cc]
	return ok
}

// ChunksAround возвращает координаты чанков в кубе n×n×n вокруг центра,
// присутствующих в наборе — используется коллайдером для перебора 27 соседей.
func (t *TriSoup) ChunksAround(center coord.ChunkCoord, radius int32) []coord.ChunkCoord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []coord.ChunkCoord
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				cc := center.Add(dx, dy, dz)
				if _, ok := t.tris[cc]; ok {
					out = append(out, cc)
				}
			}
		}
	}
	return out
}

// Triangles возвращает плоский список мировых вершин треугольников чанка.
func (t *TriSoup) Triangles(cc coord.ChunkCoord) []vec.Vec3 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tris[cc]
}

// Unload удаляет чанки рабочего набора, вышедшие за радиус потоковой передачи
// с запасом в один чанк — вызывается раз в тик игрока.
func (t *TriSoup) Unload(playerChunk coord.ChunkCoord, rxz, ry int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for cc := range t.tris {
		if cc.OutsideRadius(playerChunk, rxz, ry, 1) {
			delete(t.tris, cc)
		}
	}
}

// Len возвращает число загруженных чанков — для метрик/HUD.
func (t *TriSoup) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tris)
}
