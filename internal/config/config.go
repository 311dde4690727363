package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Auth struct {
	JWTSecret     string
	PublicKeyFile string
	Issuer        string
	Audience      string
}

type Config struct {
	Port            string
	DBDriver        string // sqlite | pgx
	DBDSN           string
	LogFile         string
	CORSOrigins     string
	SeedDemo        bool
	TxTimeout       time.Duration
	RateLimitPerMin int
	Auth            Auth
}

// Load reads configuration from the environment.
// Precedence: explicit env var > .env file (loaded by main) > default.
func Load() Config {
	cfg := Config{
		Port:            getEnv("PORT", "5000"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:           getEnv("DB_DSN", "foodloop.db"), // sqlite file in project root
		LogFile:         getEnv("LOG_FILE", "./foodloop.log"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		SeedDemo:        ParseBool("SEED_DEMO", false),
		TxTimeout:       ParseDuration("TX_TIMEOUT", 5*time.Second),
		RateLimitPerMin: ParseInt("RATE_LIMIT_PER_MIN", 120),
		Auth: Auth{
			JWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
			PublicKeyFile: os.Getenv("AUTH_JWT_PUBLIC_KEY_FILE"),
			Issuer:        os.Getenv("AUTH_ISSUER"),
			Audience:      os.Getenv("AUTH_AUDIENCE"),
		},
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s LOG_FILE=%s SEED_DEMO=%t TX_TIMEOUT=%s",
		cfg.Port, cfg.DBDriver, cfg.LogFile, cfg.SeedDemo, cfg.TxTimeout)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}

func ParseInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

func ParseDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("invalid duration for %s: %s", key, v)
			return def
		}
		return d
	}
	return def
}
