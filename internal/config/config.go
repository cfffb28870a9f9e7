package config

import (
	"io/ioutil"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config — корневая структура конфигурации сервера и клиента. Все поля
// стартовые (см. §Glossary): их изменение не требует правки протокола.
type Config struct {
	World  WorldConfig  `yaml:"world"`
	Player PlayerConfig `yaml:"player"`
	Server ServerConfig `yaml:"server"`
	Bus    BusConfig    `yaml:"bus"`
}

// WorldConfig — параметры генерации и потоковой передачи чанков.
type WorldConfig struct {
	Seed           int64 `yaml:"seed"`
	ChunkRadiusXZ  int32 `yaml:"chunk_radius_xz"`
	ChunkRadiusY   int32 `yaml:"chunk_radius_y"`
	DayLengthSecs  float64 `yaml:"day_length_seconds"`
	CacheMaxBytes  int64 `yaml:"cache_max_bytes"`
}

// PlayerConfig — константы движения игрока (§4.10).
type PlayerConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Friction    float64 `yaml:"friction"`
	GroundAccel float64 `yaml:"ground_accel"`
	AirAccel    float64 `yaml:"air_accel"`
	WalkSpeed   float64 `yaml:"walk_speed"`
	SprintMult  float64 `yaml:"sprint_mult"`
	JumpVel     float64 `yaml:"jump_vel"`
	Gravity     float64 `yaml:"gravity"`
	MouseSens   float64 `yaml:"mouse_sensitivity"`
}

// ServerConfig — сетевые порты и режим транспорта.
type ServerConfig struct {
	Port         int  `yaml:"port"`
	MetricsPort  int  `yaml:"metrics_port"`
	AdminPort    int  `yaml:"admin_port"`
	Compress     bool `yaml:"compress"`
	RedisAddr    string `yaml:"redis_addr"`
}

// BusConfig — межэкземплярная шина событий (инвалидация кеша, синхронизация часов).
type BusConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default возвращает конфигурацию, отражающую исходную константную таблицу
// игры один в один (§Glossary).
func Default() Config {
	return Config{
		World: WorldConfig{
			Seed:          42,
			ChunkRadiusXZ: 2,
			ChunkRadiusY:  1,
			DayLengthSecs: 600,
			CacheMaxBytes: 256 << 20,
		},
		Player: PlayerConfig{
			Width: 0.6, Height: 1.8,
			Friction: 8.0, GroundAccel: 15.0, AirAccel: 2.5,
			WalkSpeed: 8.0, SprintMult: 1.8, JumpVel: 8.0, Gravity: -22.0,
			MouseSens: 0.1,
		},
		Server: ServerConfig{
			Port: 7777, MetricsPort: 2112, AdminPort: 8088, Compress: true,
		},
		Bus: BusConfig{
			URL: "nats://127.0.0.1:4222", Subject: "voxelcore.cache.invalidate",
		},
	}
}

// GetPort возвращает игровой порт с приоритетом: конфиг -> переменная окружения -> дефолт.
func (s *ServerConfig) GetPort() int {
	return getPortWithEnvFallback(s.Port, "VOXELCORE_PORT", 7777)
}

// GetMetricsPort возвращает Prometheus-порт метрик.
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXELCORE_METRICS_PORT", 2112)
}

// GetAdminPort возвращает порт административного HTTP-интерфейса (gin).
func (s *ServerConfig) GetAdminPort() int {
	return getPortWithEnvFallback(s.AdminPort, "VOXELCORE_ADMIN_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default.
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// Load читает YAML файл конфигурации. Если path == "", пытается прочитать
// из ENV VOXELCORE_CONFIG или возвращает дефолты.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("VOXELCORE_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
