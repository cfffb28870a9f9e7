// Package intake — зеркальный клиентский конвейер: принимает проводные
// байты ChunkData, декодирует их вне главного потока и раз в тик отдаёт
// готовые меши ограниченными порциями.
package intake

import (
	"sync"
	"sync/atomic"

	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/protocol"
	"github.com/voxelcore/voxelcore/internal/workerpool"
)

// DefaultMaxPerFrame — сколько готовых мешей забирать из очереди за один тик.
const DefaultMaxPerFrame = 4

// Intake — принимает сырые пакеты, декодирует их в пуле и копит результат
// в очереди завершения до следующего Drain.
type Intake struct {
	pool *workerpool.Pool

	mu   sync.Mutex
	done []*mesher.Mesh

	inflight int32

	MaxPerFrame int
}

// New создаёт Intake на общем пуле воркеров.
func New(pool *workerpool.Pool) *Intake {
	return &Intake{pool: pool, MaxPerFrame: DefaultMaxPerFrame}
}

// OnChunkData копирует тело пакета (чтобы буфер транспорта можно было
// освободить) и планирует декодирование вне главного потока.
func (in *Intake) OnChunkData(body []byte) {
	copyBuf := make([]byte, len(body))
	copy(copyBuf, body)

	atomic.AddInt32(&in.inflight, 1)
	in.pool.Submit(func() {
		defer atomic.AddInt32(&in.inflight, -1)
		mesh, err := protocol.DecodeChunkData(copyBuf)
		if err != nil {
			return // повреждённый пакет отбрасывается, соединение не рвётся
		}
		in.mu.Lock()
		in.done = append(in.done, mesh)
		in.mu.Unlock()
	})
}

// Drain забирает до MaxPerFrame готовых мешей для текущего тика.
func (in *Intake) Drain() []*mesher.Mesh {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := in.MaxPerFrame
	if n <= 0 || n > len(in.done) {
		n = len(in.done)
	}
	out := in.done[:n]
	in.done = in.done[n:]
	return out
}

// Pending сообщает число задач декодирования, ещё выполняющихся в пуле —
// для HUD индикатора загрузки.
func (in *Intake) Pending() int {
	return int(atomic.LoadInt32(&in.inflight))
}
