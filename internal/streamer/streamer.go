// Package streamer держит рабочий набор чанков для каждого подключённого
// игрока на сервере и передаёт готовые байты сетевому потоку через очередь
// готовности, заполняемую воркерами.
package streamer

import (
	"sync"

	"github.com/voxelcore/voxelcore/internal/chunkcache"
	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/metrics"
	"github.com/voxelcore/voxelcore/internal/noisefield"
	"github.com/voxelcore/voxelcore/internal/protocol"
	"github.com/voxelcore/voxelcore/internal/vec"
	"github.com/voxelcore/voxelcore/internal/workerpool"
)

// PeerID — непрозрачный идентификатор подключённого игрока; стример не
// знает о деталях транспорта.
type PeerID string

// Transport — всё, что нужно стримеру от сетевого потока: надёжная отправка
// одному клиенту и явный флеш после пачки отправок.
type Transport interface {
	Send(peer PeerID, data []byte) error
	Flush(peer PeerID)
}

// sentinelChunk — значение lastChunk до первого updateClient; недостижимо
// обычной геометрией мира (спека: invalidate lastChunk sentinel).
var sentinelChunk = coord.ChunkCoord{X: 1 << 30, Y: 1 << 30, Z: 1 << 30}

// clientState — серверное состояние одного игрока: последний известный чанк
// и два непересекающихся множества рабочего набора.
type clientState struct {
	lastChunk coord.ChunkCoord
	sent      map[coord.ChunkCoord]struct{}
	pending   map[coord.ChunkCoord]struct{}
}

func newClientState() *clientState {
	return &clientState{
		lastChunk: sentinelChunk,
		sent:      make(map[coord.ChunkCoord]struct{}),
		pending:   make(map[coord.ChunkCoord]struct{}),
	}
}

type readyItem struct {
	peer  PeerID
	coord coord.ChunkCoord
	bytes []byte
}

// Streamer — по одному на сервер; создаёт рабочие наборы для каждого
// клиента вокруг его текущего чанка и скидывает готовые байты через Transport.
type Streamer struct {
	Rxz, Ry int32

	field *noisefield.Field
	cache *chunkcache.Cache
	pool  *workerpool.Pool

	mu      sync.Mutex
	clients map[PeerID]*clientState

	readyMu sync.Mutex
	ready   []readyItem
}

// New создаёт стример вокруг общего поля шума, кеша чанков и пула воркеров.
func New(field *noisefield.Field, cache *chunkcache.Cache, pool *workerpool.Pool, rxz, ry int32) *Streamer {
	return &Streamer{
		Rxz:     rxz,
		Ry:      ry,
		field:   field,
		cache:   cache,
		pool:    pool,
		clients: make(map[PeerID]*clientState),
	}
}

// AddClient регистрирует нового клиента с пустым рабочим набором.
func (s *Streamer) AddClient(peer PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[peer] = newClientState()
}

// RemoveClient отбрасывает состояние клиента; запоздавшие завершения задач
// для него будут молча отброшены в flushReady.
func (s *Streamer) RemoveClient(peer PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, peer)
}

// ResetClient очищает sent/pending и инвалидирует lastChunk — используется
// при респауне. Задачи, уже выполняющиеся в пуле, по завершении повторно
// добавят координату в sent.
func (s *Streamer) ResetClient(peer PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.clients[peer]
	if !ok {
		return
	}
	cs.lastChunk = sentinelChunk
	cs.sent = make(map[coord.ChunkCoord]struct{})
	cs.pending = make(map[coord.ChunkCoord]struct{})
}

// UpdateClient пересчитывает рабочий набор вокруг новой позиции, если
// игрок сменил чанк; не-op в противном случае.
func (s *Streamer) UpdateClient(peer PeerID, pos vec.Vec3) {
	center := coord.FromWorld(pos)

	s.mu.Lock()
	cs, ok := s.clients[peer]
	if !ok {
		s.mu.Unlock()
		return
	}
	if cs.lastChunk == center {
		s.mu.Unlock()
		return
	}
	cs.lastChunk = center
	s.mu.Unlock()

	for dx := -s.Rxz; dx <= s.Rxz; dx++ {
		for dy := -s.Ry; dy <= s.Ry; dy++ {
			for dz := -s.Rxz; dz <= s.Rxz; dz++ {
				s.scheduleChunk(peer, cs, center.Add(dx, dy, dz))
			}
		}
	}
}

// scheduleChunk планирует доставку одного чанка клиенту, если он ещё не в
// sent и не в pending. Попадание в кеш уходит сразу в очередь готовности;
// промах запускает задачу в пуле воркеров.
func (s *Streamer) scheduleChunk(peer PeerID, cs *clientState, cc coord.ChunkCoord) {
	s.mu.Lock()
	_, isSent := cs.sent[cc]
	_, isPending := cs.pending[cc]
	if isSent || isPending {
		s.mu.Unlock()
		return
	}

	if bytes, hit := s.cache.Peek(cc); hit {
		cs.sent[cc] = struct{}{}
		s.mu.Unlock()
		s.pushReady(readyItem{peer: peer, coord: cc, bytes: bytes})
		return
	}

	cs.pending[cc] = struct{}{}
	s.mu.Unlock()

	metrics.ChunksScheduled.Inc()
	s.pool.Submit(func() {
		field := s.field.Generate(cc)
		mesh := mesher.March(field)
		bytes := s.cache.GetOrBuild(cc, func(coord.ChunkCoord) []byte {
			return protocol.EncodeChunkData(mesh)
		})
		s.pushReady(readyItem{peer: peer, coord: cc, bytes: bytes})
	})
}

func (s *Streamer) pushReady(item readyItem) {
	s.readyMu.Lock()
	s.ready = append(s.ready, item)
	s.readyMu.Unlock()
}

// FlushReady осушает очередь готовности атомарной заменой на пустую,
// передаёт байты транспорту для ещё существующих клиентов и переводит их
// координаты из pending в sent. Запоздавшие записи для отсутствующих
// клиентов отбрасываются.
func (s *Streamer) FlushReady(t Transport) {
	s.readyMu.Lock()
	batch := s.ready
	s.ready = nil
	s.readyMu.Unlock()

	if len(batch) == 0 {
		return
	}

	touched := make(map[PeerID]struct{})
	for _, item := range batch {
		s.mu.Lock()
		cs, ok := s.clients[item.peer]
		if !ok {
			s.mu.Unlock()
			continue
		}
		delete(cs.pending, item.coord)
		cs.sent[item.coord] = struct{}{}
		s.mu.Unlock()

		if err := t.Send(item.peer, item.bytes); err == nil {
			touched[item.peer] = struct{}{}
			metrics.ChunksSent.Inc()
		}
	}
	for peer := range touched {
		t.Flush(peer)
	}
}
