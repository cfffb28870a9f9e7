package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxelcore/voxelcore/internal/adminapi"
	"github.com/voxelcore/voxelcore/internal/config"
	"github.com/voxelcore/voxelcore/internal/logging"
	"github.com/voxelcore/voxelcore/internal/serverloop"
)

func main() {
	log := logging.GetServerLogger()

	cfg, err := config.Load("")
	if err != nil {
		log.Error("❌ ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}

	log.Info("🎮 запуск voxelcore: потоковая передача ландшафта и симуляция игрока")

	srv := serverloop.New(cfg)

	gameAddr := fmt.Sprintf(":%d", cfg.Server.GetPort())
	log.Info("📡 игровой трафик: KCP %s (seed=%d, compress=%v)", gameAddr, cfg.World.Seed, cfg.Server.Compress)

	go func() {
		if err := srv.Run(gameAddr); err != nil {
			log.Error("❌ конвейер потоковой передачи остановлен: %v", err)
			os.Exit(1)
		}
	}()

	adminAddr := fmt.Sprintf(":%d", cfg.Server.GetAdminPort())
	router := adminapi.New(srv)
	go func() {
		log.Info("🌐 административный HTTP-интерфейс: http://localhost%s", adminAddr)
		if err := http.ListenAndServe(adminAddr, router); err != nil {
			log.Error("❌ административный HTTP-интерфейс остановлен: %v", err)
		}
	}()

	log.Info("✅ сервер запущен и готов принимать соединения")
	log.Info("   ❤️  health check: http://localhost%s/healthz", adminAddr)
	log.Info("   📊 метрики Prometheus: http://localhost%s/metrics", adminAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("📡 получен сигнал %v, завершение работы", sig)
}
