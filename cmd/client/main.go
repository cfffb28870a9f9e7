// cmd/client — минимальный сетевой драйвер клиентского ядра. Окно, ввод и
// рендеринг вне области спецификации (Non-goals §12); эта программа лишь
// поднимает соединение и прогоняет clientloop.Tick на фиксированной частоте,
// печатая состояние подключения и спауна — годится как smoke-driver и
// как точка встраивания для настоящего фронтенда.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/voxelcore/voxelcore/internal/clientloop"
	"github.com/voxelcore/voxelcore/internal/config"
	"github.com/voxelcore/voxelcore/internal/logging"
)

const tickRate = 60

func main() {
	addr := flag.String("addr", "127.0.0.1:7777", "адрес игрового сервера")
	name := flag.String("name", "player", "отображаемое имя")
	flag.Parse()

	log := logging.GetClientLogger()

	cfg, err := config.Load("")
	if err != nil {
		log.Error("❌ ошибка загрузки конфигурации: %v", err)
		os.Exit(1)
	}

	log.Info("🔌 подключение к %s...", *addr)
	client, err := clientloop.Dial(*addr, cfg)
	if err != nil {
		log.Error("❌ таймаут или отказ подключения: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := client.Join(*name); err != nil {
		log.Error("❌ не удалось отправить PlayerJoin: %v", err)
		os.Exit(1)
	}

	go client.RecvLoop()

	log.Info("✅ подключено, ожидание ворот спауна...")

	dt := 1.0 / float64(tickRate)
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	spawnAnnounced := false
	for {
		select {
		case err := <-client.Errors():
			log.Error("❌ соединение прервано: %v", err)
			os.Exit(1)
		case <-ticker.C:
			client.Tick(dt, clientloop.Input{})
			if !spawnAnnounced && client.SpawnProgress() >= 1.0 {
				spawnAnnounced = true
				log.Info("🗺️  ворота спауна открыты, игрок в мире")
			}
		}
	}
}
