package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type StorageDriver string

const (
	DriverMemory   StorageDriver = "memory"
	DriverFile     StorageDriver = "file"
	DriverSQLite   StorageDriver = "sqlite"
	DriverPostgres StorageDriver = "postgres"
)

type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminUsers       []int64 `env:"ADMIN_USERS" envSeparator:":"`

	// Storage
	StorageDriver StorageDriver `env:"STORAGE_DRIVER" envDefault:"file"`
	StoragePath   string        `env:"STORAGE_PATH" envDefault:"data/store"`
	DBDsn         string        `env:"DB_DSN"`

	// Signup flow
	SerializeGuildUpdates bool          `env:"SERIALIZE_GUILD_UPDATES" envDefault:"false"`
	SessionTTL            time.Duration `env:"SESSION_TTL" envDefault:"15m"`

	// Reminders
	ReminderSchedule string        `env:"REMINDER_SCHEDULE" envDefault:"@every 1m"`
	ReminderLead     time.Duration `env:"REMINDER_LEAD" envDefault:"15m"`

	// Observability
	MetricsAddr  string `env:"METRICS_ADDR" envDefault:":9090"`
	Environment  string `env:"GO_ENV" envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the environment without exiting on failure.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
