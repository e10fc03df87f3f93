package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Api struct {
		BaseURL   string        `env:"STORY_API_BASE_URL" env-default:"https://story-api.dicoding.dev/v1"`
		Timeout   time.Duration `env:"STORY_API_TIMEOUT" env-default:"8s"`
		VapidKey  string        `env:"STORY_API_VAPID_KEY"`
		TokenFile string        `env:"STORY_API_TOKEN_FILE"`
	}
	Storage struct {
		Path string `env:"STORAGE_PATH" env-default:"./data/dstory.db"`
	}
	Cache struct {
		ShellURL        string        `env:"CACHE_SHELL_URL"`
		PlaceholderIcon string        `env:"CACHE_PLACEHOLDER_ICON_URL"`
		PruneInterval   time.Duration `env:"CACHE_PRUNE_INTERVAL" env-default:"1h"`
	}
	Sync struct {
		Interval time.Duration `env:"SYNC_INTERVAL" env-default:"15m"`
		PageSize int           `env:"SYNC_PAGE_SIZE" env-default:"30"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}
