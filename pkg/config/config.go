package config

import (
	"log"
	"os"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP   `yaml:"http"`
	Postgres PG     `yaml:"postgres"`
	Outbox   Outbox `yaml:"outbox"`
	SMTP     SMTP   `yaml:"smtp"`
	Push     Push   `yaml:"push"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Outbox struct {
	PollingInterval time.Duration `yaml:"polling_interval" env:"OUTBOX_POLLING_INTERVAL" env-default:"5s"`
	BatchSize       int           `yaml:"batch_size" env:"OUTBOX_BATCH_SIZE" env-default:"10"`
	MaxRetries      int           `yaml:"max_retries" env:"OUTBOX_MAX_RETRIES" env-default:"3"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	AppURL   string `yaml:"app_url" env:"APP_URL" env-default:"http://localhost:3000"`
}

type Push struct {
	Endpoint string `yaml:"endpoint" env:"PUSH_ENDPOINT" env-default:"https://exp.host/--/api/v2/push/send"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
