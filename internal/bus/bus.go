// Package bus рассылает межэкземплярные события — инвалидацию записей
// ChunkCache и коррекцию часов суток — между узлами сервера, делящими один
// seed. Без сконфигурированного NATS деградирует до локального no-op, что
// сохраняет наблюдаемое поведение одного инстанса без внешней шины.
package bus

import (
	"encoding/binary"
	"math"

	"github.com/nats-io/nats.go"

	"github.com/voxelcore/voxelcore/internal/coord"
)

// InvalidateHandler обрабатывает уведомление об инвалидации чанка от другого узла.
type InvalidateHandler func(coord.ChunkCoord)

// ClockSyncHandler обрабатывает широковещательную коррекцию времени суток.
type ClockSyncHandler func(normalizedTime float64)

const (
	invalidateSuffix = ".invalidate"
	clockSuffix      = ".clock"
)

// Bus — тонкая обёртка над NATS pub/sub с двумя фиксированными темами.
type Bus struct {
	nc      *nats.Conn
	subject string
}

// Connect подключается к NATS по url и использует subject как базовое имя
// темы (к нему добавляются суффиксы .invalidate и .clock).
func Connect(url, subject string) (*Bus, error) {
	nc, err := nats.Connect(url, nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &Bus{nc: nc, subject: subject}, nil
}

// PublishInvalidate уведомляет остальные узлы, что запись кеша для coord
// более не действительна (например, после ручной регенерации сида).
func (b *Bus) PublishInvalidate(cc coord.ChunkCoord) error {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], uint32(cc.X))
	binary.BigEndian.PutUint32(buf[4:8], uint32(cc.Y))
	binary.BigEndian.PutUint32(buf[8:12], uint32(cc.Z))
	return b.nc.Publish(b.subject+invalidateSuffix, buf)
}

// SubscribeInvalidate регистрирует обработчик входящих инвалидаций.
func (b *Bus) SubscribeInvalidate(h InvalidateHandler) (*nats.Subscription, error) {
	return b.nc.Subscribe(b.subject+invalidateSuffix, func(m *nats.Msg) {
		if len(m.Data) != 12 {
			return
		}
		cc := coord.ChunkCoord{
			X: int32(binary.BigEndian.Uint32(m.Data[0:4])),
			Y: int32(binary.BigEndian.Uint32(m.Data[4:8])),
			Z: int32(binary.BigEndian.Uint32(m.Data[8:12])),
		}
		h(cc)
	})
}

// PublishClock широковещательно рассылает канонический normalizedTime —
// используется ведущим узлом, чтобы держать часы суток нескольких
// инстансов в согласии.
func (b *Bus) PublishClock(normalizedTime float64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(normalizedTime))
	return b.nc.Publish(b.subject+clockSuffix, buf)
}

// SubscribeClock регистрирует обработчик коррекций часов суток.
func (b *Bus) SubscribeClock(h ClockSyncHandler) (*nats.Subscription, error) {
	return b.nc.Subscribe(b.subject+clockSuffix, func(m *nats.Msg) {
		if len(m.Data) != 8 {
			return
		}
		h(math.Float64frombits(binary.BigEndian.Uint64(m.Data)))
	})
}

// Close завершает соединение с NATS.
func (b *Bus) Close() {
	b.nc.Close()
}
