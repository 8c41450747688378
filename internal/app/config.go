package app

import (
	"fmt"
	"time"

	server "github.com/Pelanglene/213bot/internal/adapters/primary/http"
	alerterAdapter "github.com/Pelanglene/213bot/internal/adapters/secondary/alerter"
	"github.com/Pelanglene/213bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/Pelanglene/213bot/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/Pelanglene/213bot/internal/adapters/secondary/storage/s3"
	"github.com/Pelanglene/213bot/internal/adapters/secondary/telegram"
	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Бэкенды хранилища бакетов
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendS3       = "s3"
)

type Config struct {
	Log        *logger.Config         `envconfig:"LOG"`
	Server     *server.Config         `envconfig:"APISERVER"`
	Engagement *EngagementConfig      `envconfig:"ENGAGEMENT"`
	Storage    *StorageConfig         `envconfig:"STORAGE"`
	Postgres   *pg.Config             `envconfig:"POSTGRES"`
	Redis      *redisAdapter.Config   `envconfig:"REDIS"`
	S3         *s3Adapter.Config      `envconfig:"S3"`
	Telegram   *telegram.Config       `envconfig:"TELEGRAM"`
	Alerter    *alerterAdapter.Config `envconfig:"ALERTER"`
}

// EngagementConfig параметры механик вовлечения
type EngagementConfig struct {
	Timezone         string        `envconfig:"TIMEZONE" default:"Europe/Moscow"`
	InactiveAfter    time.Duration `envconfig:"INACTIVE_AFTER" default:"15m"`
	ActiveHoursStart int           `envconfig:"ACTIVE_HOURS_START" default:"9"`
	ActiveHoursEnd   int           `envconfig:"ACTIVE_HOURS_END" default:"21"`
	ScanInterval     time.Duration `envconfig:"SCAN_INTERVAL" default:"60s"`
	DeadChatText     string        `envconfig:"DEAD_CHAT_TEXT"`
	WinnerSchedule   string        `envconfig:"WINNER_SCHEDULE" default:"5 0 * * *"`
	WinnerText       string        `envconfig:"WINNER_TEXT"`
	DefaultCooldown  time.Duration `envconfig:"DEFAULT_COOLDOWN" default:"24h"`
	RateLimit        time.Duration `envconfig:"RATE_LIMIT" default:"1s"`
	TopLimit         int           `envconfig:"TOP_LIMIT" default:"10"`
}

// Policy порог неактивности и активное окно
func (c *EngagementConfig) Policy() domain.InactivityPolicy {
	return domain.InactivityPolicy{
		Threshold: c.InactiveAfter,
		Window: domain.ActiveWindow{
			StartHour: c.ActiveHoursStart,
			EndHour:   c.ActiveHoursEnd,
		},
	}
}

func (c *EngagementConfig) Validate() error {
	if c.InactiveAfter <= 0 {
		return fmt.Errorf("inactive_after must be positive, got %s", c.InactiveAfter)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan_interval must be positive, got %s", c.ScanInterval)
	}
	if c.TopLimit <= 0 {
		return fmt.Errorf("top_limit must be positive, got %d", c.TopLimit)
	}
	if c.RateLimit < 0 || c.DefaultCooldown < 0 {
		return fmt.Errorf("rate_limit and default_cooldown must not be negative")
	}
	return c.Policy().Window.Validate()
}

// StorageConfig где хранятся бакеты дней и месяцев
type StorageConfig struct {
	Backend  string `envconfig:"BACKEND" default:"file"`
	Dir      string `envconfig:"DIR" default:"data"`
	BoltPath string `envconfig:"BOLT_PATH" default:"data/engagement.db"`
	// ReactionsCache redis - счётчики реакций в Redis, иначе в памяти процесса
	ReactionsCache string `envconfig:"REACTIONS_CACHE" default:"memory"`
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendFile, BackendBolt, BackendPostgres, BackendRedis, BackendS3:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}

	switch c.ReactionsCache {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown reactions cache %q", c.ReactionsCache)
	}

	return nil
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Engagement.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engagement config: %w", err)
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	return cfg, nil
}
