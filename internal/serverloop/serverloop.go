// Package serverloop сводит конвейер потоковой передачи в единый насос
// событий: одна горутина-транспорт на пира плюс общий пул воркеров, с
// однократным courtesy-sleep тиком, сбрасывающим готовые чанки.
package serverloop

import (
	"sync"
	"time"

	"github.com/voxelcore/voxelcore/internal/bus"
	"github.com/voxelcore/voxelcore/internal/chunkcache"
	"github.com/voxelcore/voxelcore/internal/config"
	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/logging"
	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/metrics"
	"github.com/voxelcore/voxelcore/internal/noisefield"
	"github.com/voxelcore/voxelcore/internal/protocol"
	"github.com/voxelcore/voxelcore/internal/session"
	"github.com/voxelcore/voxelcore/internal/streamer"
	"github.com/voxelcore/voxelcore/internal/transport"
	"github.com/voxelcore/voxelcore/internal/vec"
	"github.com/voxelcore/voxelcore/internal/workerpool"
	"github.com/voxelcore/voxelcore/internal/worldclock"
)

// clockPublishInterval — как часто ведущий узел рассылает коррекцию часов
// суток остальным инстансам кластера через шину.
const clockPublishInterval = 5 * time.Second

const tickSleep = time.Millisecond // не даёт транспортному циклу голодать воркеров на слабых ядрах

// hub реализует streamer.Transport поверх набора именованных KCP-каналов.
type hub struct {
	mu    sync.RWMutex
	conns map[streamer.PeerID]*transport.Channel
}

func newHub() *hub { return &hub{conns: make(map[streamer.PeerID]*transport.Channel)} }

func (h *hub) add(id streamer.PeerID, ch *transport.Channel) {
	h.mu.Lock()
	h.conns[id] = ch
	n := len(h.conns)
	h.mu.Unlock()
	metrics.ConnectedPeers.Set(float64(n))
}

func (h *hub) remove(id streamer.PeerID) {
	h.mu.Lock()
	delete(h.conns, id)
	n := len(h.conns)
	h.mu.Unlock()
	metrics.ConnectedPeers.Set(float64(n))
}

func (h *hub) Send(peer streamer.PeerID, data []byte) error {
	h.mu.RLock()
	ch, ok := h.conns[peer]
	h.mu.RUnlock()
	if !ok {
		return nil // тардис-доставка отсутствующему пиру молча отбрасывается
	}
	return ch.Send(data)
}

func (h *hub) Flush(peer streamer.PeerID) {
	h.mu.RLock()
	ch, ok := h.conns[peer]
	h.mu.RUnlock()
	if ok {
		_ = ch.Flush()
	}
}

// Server держит весь серверный конвейер потоковой передачи чанков.
type Server struct {
	cfg      config.Config
	field    *noisefield.Field
	cache    *chunkcache.Cache
	pool     *workerpool.Pool
	streamer *streamer.Streamer
	issuer   *session.Issuer
	hub      *hub
	log      *logging.Logger
	clock    *worldclock.Clock
	bus      *bus.Bus // nil, если cfg.Bus.URL пуст — тогда часы и кеш живут в пределах одного инстанса

	listener *transport.Listener

	mu    sync.Mutex
	names map[streamer.PeerID]string
}

// New строит сервер по конфигурации; поле seed берётся из cfg.World.Seed.
func New(cfg config.Config) *Server {
	pool := workerpool.New(0)
	cache, err := chunkcache.New(cfg.World.CacheMaxBytes)
	if err != nil {
		cache, _ = chunkcache.New(0)
	}
	field := noisefield.New(cfg.World.Seed, noisefield.DefaultConfig())
	st := streamer.New(field, cache, pool, cfg.World.ChunkRadiusXZ, cfg.World.ChunkRadiusY)
	log := logging.GetServerLogger()

	s := &Server{
		cfg:      cfg,
		field:    field,
		cache:    cache,
		pool:     pool,
		streamer: st,
		issuer:   session.NewIssuer(session.GenerateSecret(), 24*time.Hour),
		hub:      newHub(),
		log:      log,
		clock:    worldclock.New(cfg.World.DayLengthSecs),
		names:    make(map[streamer.PeerID]string),
	}

	if cfg.Bus.URL != "" {
		b, err := bus.Connect(cfg.Bus.URL, cfg.Bus.Subject)
		if err != nil {
			log.Warn("шина кластера недоступна, работаем как одиночный инстанс: %v", err)
		} else {
			s.bus = b
			if _, err := b.SubscribeInvalidate(s.cache.Invalidate); err != nil {
				log.Warn("не удалось подписаться на инвалидацию кеша: %v", err)
			}
			if _, err := b.SubscribeClock(s.clock.Sync); err != nil {
				log.Warn("не удалось подписаться на синхронизацию часов: %v", err)
			}
		}
	}

	return s
}

// ConnectedPeers реализует adminapi.StatsProvider.
func (s *Server) ConnectedPeers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// CacheStats реализует adminapi.StatsProvider.
func (s *Server) CacheStats() (hits, misses int64) {
	st := s.cache.Stats()
	return st.Hits, st.Misses
}

// Run слушает addr и обслуживает соединения, пока Accept листенера не вернёт
// ошибку; отдельного метода остановки у Server нет.
func (s *Server) Run(addr string) error {
	ln, err := transport.Listen(addr, s.cfg.Server.Compress)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.flushLoop()

	for {
		ch, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.serveConn(ch)
	}
}

func (s *Server) flushLoop() {
	var sinceClockPublish time.Duration
	for {
		s.streamer.FlushReady(s.hub)
		metrics.WorkerPoolPending.Set(float64(s.pool.Pending()))

		s.clock.Advance(tickSleep.Seconds())
		if s.bus != nil {
			sinceClockPublish += tickSleep
			if sinceClockPublish >= clockPublishInterval {
				sinceClockPublish = 0
				if err := s.bus.PublishClock(s.clock.Time()); err != nil {
					s.log.Warn("не удалось опубликовать коррекцию часов: %v", err)
				}
			}
		}

		time.Sleep(tickSleep)
	}
}

func (s *Server) serveConn(ch *transport.Channel) {
	peer := streamer.PeerID(ch.RemoteAddr().String())
	s.hub.add(peer, ch)
	s.streamer.AddClient(peer)
	defer func() {
		s.hub.remove(peer)
		s.streamer.RemoveClient(peer)
		s.mu.Lock()
		delete(s.names, peer)
		s.mu.Unlock()
		ch.Close()
	}()

	spawnY := s.field.SurfaceHeight(0, 0)
	s.streamer.UpdateClient(peer, vec.Vec3{X: 0, Y: spawnY, Z: 0})
	if err := ch.Send(protocol.EncodeSpawnPosition(vec.Vec3{X: 0, Y: spawnY, Z: 0})); err != nil {
		return
	}

	s.log.Info("пир %s подключился", peer)
	for {
		body, err := ch.Receive()
		if err != nil {
			s.log.Info("пир %s отключился: %v", peer, err)
			return
		}
		s.dispatch(peer, ch, body)
	}
}

func (s *Server) dispatch(peer streamer.PeerID, ch *transport.Channel, body []byte) {
	tag, payload, err := protocol.Body(body)
	if err != nil {
		metrics.DecodeErrors.Inc()
		s.log.Warn("пир %s: отброшен пакет: %v", peer, err)
		return
	}
	switch tag {
	case protocol.TagPlayerJoin:
		name, err := protocol.DecodePlayerJoin(payload)
		if err != nil {
			metrics.DecodeErrors.Inc()
			return
		}
		s.mu.Lock()
		s.names[peer] = name
		s.mu.Unlock()
	case protocol.TagPlayerMove:
		mv, err := protocol.DecodePlayerMove(payload)
		if err != nil {
			metrics.DecodeErrors.Inc()
			return
		}
		s.streamer.UpdateClient(peer, vec.Vec3{X: float64(mv.X), Y: float64(mv.Y), Z: float64(mv.Z)})
	case protocol.TagPlayerLeave:
		s.streamer.RemoveClient(peer)
	case protocol.TagRespawnRequest:
		s.streamer.ResetClient(peer)
		spawnY := s.field.SurfaceHeight(0, 0)
		_ = ch.Send(protocol.EncodeSpawnPosition(vec.Vec3{X: 0, Y: spawnY, Z: 0}))
	default:
		metrics.DecodeErrors.Inc()
	}
}

// BuildChunk выполняет полный конвейер генерации одного чанка так же, как
// это делает воркер-задача стримера.
func BuildChunk(field *noisefield.Field, cc coord.ChunkCoord) []byte {
	sf := field.Generate(cc)
	m := mesher.March(sf)
	return protocol.EncodeChunkData(m)
}
