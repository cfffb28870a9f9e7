// Package metrics экспонирует счётчики и датчики Prometheus для
// потокового конвейера и хостовые метрики через gopsutil, снятые для
// административного HTTP-интерфейса (internal/adminapi).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	ChunksScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelcore_chunks_scheduled_total",
		Help: "Число чанков, поставленных в очередь генерации стримером.",
	})
	ChunksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelcore_chunks_sent_total",
		Help: "Число чанков, успешно отправленных клиентам.",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelcore_cache_hits_total",
		Help: "Попадания в ChunkCache (L1+L2).",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelcore_cache_misses_total",
		Help: "Промахи ChunkCache, приводящие к генерации.",
	})
	WorkerPoolPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelcore_workerpool_pending",
		Help: "Число задач, ожидающих в очереди пула воркеров.",
	})
	ConnectedPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelcore_connected_peers",
		Help: "Число подключённых клиентов.",
	})
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelcore_decode_errors_total",
		Help: "Отброшенные пакеты с ошибкой декодирования.",
	})
)

// HostSample — снимок загрузки хоста для /healthz административного API.
type HostSample struct {
	CPUPercent float64
	MemUsedPct float64
}

// SampleHost снимает CPU/RAM хоста через gopsutil; ошибки одного датчика
// не должны обрушивать другой, поэтому каждый читается независимо.
func SampleHost() HostSample {
	var s HostSample
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemUsedPct = vm.UsedPercent
	}
	return s
}
