package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from the environment.
type Config struct {
	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLDatabase string

	Port string

	// Model selects the generation backend, e.g. "kolosal/Claude Sonnet 4.5",
	// "openai/gpt-4o", "gemini/gemini-2.0-flash-001" or a bare claude model name.
	Model string

	// BackendTimeout bounds a single generation call. On expiry the exchange
	// aborts with no transcript writes.
	BackendTimeout time.Duration
}

// Load reads .env if present, then the environment, applying defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		MySQLUser:      getenv("MYSQL_USER", "user"),
		MySQLPassword:  getenv("MYSQL_PWD", "password"),
		MySQLHost:      getenv("MYSQL_HOST", "tcp(127.0.0.1:3306)"),
		MySQLDatabase:  getenv("MYSQL_DATABASE", "tawarin_db"),
		Port:           getenv("PORT", "8080"),
		Model:          getenv("NEGO_MODEL", "kolosal/Claude Sonnet 4.5"),
		BackendTimeout: getduration("BACKEND_TIMEOUT", 20*time.Second),
	}
}

// DSN returns the MySQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@%s/%s?parseTime=true&loc=Local",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLDatabase)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
