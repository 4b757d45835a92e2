package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings, parsed from the environment
type Config struct {
	Port            string `env:"PORT" envDefault:"8000"`
	GinMode         string `env:"GIN_MODE"`
	DatabaseURL     string `env:"DATABASE_URL"`
	DataPath        string `env:"DATA_PATH" envDefault:"host_qualifier.db"`
	JWTSecret       string `env:"JWT_SECRET"`
	APIMasterSecret string `env:"API_MASTER_SECRET"`
	AdminUsername   string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword   string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
}

// Load reads an optional .env file and parses the environment.
// Parent directories are probed so cmd binaries work from their own dir.
func Load() (*Config, error) {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
