package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

type Config struct {
	HTTPAddr    string
	Store       string
	DBPath      string
	FilePath    string
	CORSOrigins []string
	Debug       bool

	WebhookURL      string
	NotifyCommand   string
	DeliveryWorkers int
	DeliveryTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      getenv("REMINDER_HTTP_ADDR", ":8080"),
		Store:         strings.ToLower(getenv("REMINDER_STORE", StoreSQLite)),
		DBPath:        getenv("REMINDER_DB", "remindflow.db"),
		FilePath:      getenv("REMINDER_FILE", "reminders.json"),
		Debug:         getenv("REMINDER_DEBUG", "false") == "true",
		WebhookURL:    getenv("REMINDER_WEBHOOK_URL", ""),
		NotifyCommand: getenv("REMINDER_NOTIFY_COMMAND", ""),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFormat:     getenv("LOG_FORMAT", "console"),
	}

	for _, o := range strings.Split(getenv("REMINDER_CORS_ORIGINS", ""), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	var err error
	if cfg.DeliveryWorkers, err = strconv.Atoi(getenv("REMINDER_DELIVERY_WORKERS", "4")); err != nil {
		return Config{}, fmt.Errorf("REMINDER_DELIVERY_WORKERS: %w", err)
	}
	if cfg.DeliveryTimeout, err = time.ParseDuration(getenv("REMINDER_DELIVERY_TIMEOUT", "30s")); err != nil {
		return Config{}, fmt.Errorf("REMINDER_DELIVERY_TIMEOUT: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreFile:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreSQLite, StoreFile)
	}
	if c.DeliveryWorkers <= 0 {
		return fmt.Errorf("delivery workers must be positive, got %d", c.DeliveryWorkers)
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("delivery timeout must be positive, got %s", c.DeliveryTimeout)
	}
	return nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
