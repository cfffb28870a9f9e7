// Package adminapi предоставляет минимальный HTTP-интерфейс поверх gin для
// проверки состояния сервера и экспозиции метрик Prometheus — вне ядра
// симуляции, обращается к нему только для чтения снимков состояния.
package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxelcore/voxelcore/internal/metrics"
)

// StatsProvider — снимок состояния сервера, публикуемый /status.
type StatsProvider interface {
	ConnectedPeers() int
	CacheStats() (hits, misses int64)
}

// New строит gin-роутер с /healthz, /status и /metrics.
func New(stats StatsProvider) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		host := metrics.SampleHost()
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"cpu_percent":  host.CPUPercent,
			"mem_used_pct": host.MemUsedPct,
		})
	})

	r.GET("/status", func(c *gin.Context) {
		hits, misses := stats.CacheStats()
		c.JSON(http.StatusOK, gin.H{
			"connected_peers": stats.ConnectedPeers(),
			"cache_hits":      hits,
			"cache_misses":    misses,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
