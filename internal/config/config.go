package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string        `env:"RUN_ADDRESS" env-default:":8080"`
	DataDir      string        `env:"DATA_DIR" env-default:"data"`
	DatabaseURL  string        `env:"DATABASE_URI"`
	KafkaBrokers []string      `env:"KAFKA_BROKERS" env-separator:","`
	StaffToken   string        `env:"STAFF_TOKEN"`
	LockWait     time.Duration `env:"LOCK_WAIT" env-default:"2s"`
}

// Load reads flags, then lets the environment (optionally seeded from a .env file)
// override them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	flag.StringVar(&cfg.Addr, "a", ":8080", "HTTP listen address")
	flag.StringVar(&cfg.DataDir, "d", "data", "directory for the JSON container files")
	flag.StringVar(&cfg.DatabaseURL, "db", "", "Postgres URL; set to use Postgres instead of the file store")

	flag.Parse()

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("couldn't read environment variables: %w", err)
	}

	return cfg, nil
}
