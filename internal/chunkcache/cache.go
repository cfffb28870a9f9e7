// Package chunkcache мемоизирует сериализованные байты чанков на сервере:
// ключ ChunkCoord → замороженные проводные байты. Билдер запускается вне
// блокировки карты, поэтому при гонке на первом промахе возможна
// дублирующая генерация — это допустимо, потому что генерация чистая, а
// байты проигравшего просто отбрасываются.
package chunkcache

import (
	"context"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/go-redis/redis/v8"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/metrics"
)

// Builder производит байты чанка по требованию; должен быть чистой функцией
// от координаты и seed, захваченного замыканием.
type Builder func(coord.ChunkCoord) []byte

// Cache — потокобезопасный кеш с L1 в памяти (ristretto, с опциональным
// лимитом по суммарному размеру байт) и опциональным L2 в Redis для
// горизонтально масштабированных развёртываний, разделяющих один seed.
type Cache struct {
	mu      sync.Mutex
	fallback map[coord.ChunkCoord][]byte // используется, если ristretto не сконфигурирован (тесты)
	hot     *ristretto.Cache
	redis   *redis.Client
	ctx     context.Context

	hits, misses int64
}

// Option настраивает Cache при создании.
type Option func(*Cache)

// WithRedis включает L2-уровень в указанном Redis-клиенте.
func WithRedis(client *redis.Client) Option {
	return func(c *Cache) { c.redis = client }
}

// New создаёт кеш. maxBytes<=0 отключает вытеснение L1 — наблюдаемое
// поведение для невытесненных координат не меняется относительно
// неограниченного варианта, как допускает базовая спецификация.
func New(maxBytes int64, opts ...Option) (*Cache, error) {
	c := &Cache{
		fallback: make(map[coord.ChunkCoord][]byte),
		ctx:      context.Background(),
	}
	if maxBytes > 0 {
		hot, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: maxBytes / 64, // ~64B средний чанк-ключ для подсчёта частот
			MaxCost:     maxBytes,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		c.hot = hot
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) getLocal(key coord.ChunkCoord) ([]byte, bool) {
	if c.hot != nil {
		if v, ok := c.hot.Get(key.Hash()); ok {
			return v.([]byte), true
		}
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.fallback[key]
	return b, ok
}

func (c *Cache) setLocal(key coord.ChunkCoord, bytes []byte) {
	if c.hot != nil {
		c.hot.Set(key.Hash(), bytes, int64(len(bytes)))
		return
	}
	c.mu.Lock()
	c.fallback[key] = bytes
	c.mu.Unlock()
}

func (c *Cache) redisKey(key coord.ChunkCoord) string {
	return redisKeyPrefix(key)
}

// Peek возвращает байты чанка без построения, если он уже закеширован
// (в L1 или L2). Используется стримером, чтобы обслужить попадание в кеш
// напрямую из очереди готовности, минуя пул воркеров.
func (c *Cache) Peek(key coord.ChunkCoord) ([]byte, bool) {
	if b, ok := c.getLocal(key); ok {
		c.bumpHit()
		return b, true
	}
	if c.redis != nil {
		if s, err := c.redis.Get(c.ctx, c.redisKey(key)).Bytes(); err == nil {
			c.setLocal(key, s)
			c.bumpHit()
			return s, true
		}
	}
	return nil, false
}

// GetOrBuild возвращает кешированные байты чанка либо строит их один раз.
func (c *Cache) GetOrBuild(key coord.ChunkCoord, build Builder) []byte {
	if b, ok := c.getLocal(key); ok {
		c.bumpHit()
		return b
	}
	if c.redis != nil {
		if s, err := c.redis.Get(c.ctx, c.redisKey(key)).Bytes(); err == nil {
			c.setLocal(key, s)
			c.bumpHit()
			return s
		}
	}
	c.bumpMiss()
	bytes := build(key)
	c.setLocal(key, bytes)
	if c.redis != nil {
		c.redis.Set(c.ctx, c.redisKey(key), bytes, 0)
	}
	return bytes
}

// Stats — приблизительные счётчики для экспозиции в метриках.
type Stats struct {
	Hits, Misses int64
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses}
}

// Invalidate удаляет запись из L1 (и, если сконфигурирован, L2) — вызывается
// при получении уведомления от другого узла кластера через internal/bus.
func (c *Cache) Invalidate(key coord.ChunkCoord) {
	if c.hot != nil {
		c.hot.Del(key.Hash())
	} else {
		c.mu.Lock()
		delete(c.fallback, key)
		c.mu.Unlock()
	}
	if c.redis != nil {
		c.redis.Del(c.ctx, c.redisKey(key))
	}
}

func (c *Cache) bumpHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	metrics.CacheHits.Inc()
}

func (c *Cache) bumpMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	metrics.CacheMisses.Inc()
}
