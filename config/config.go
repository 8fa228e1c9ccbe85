package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	Port string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	RedisAddress    string
	RedisPassword   string
	IssueLimitQueue string
	IssueDailyLimit int

	JWTSecret string

	// CORSOrigins lists the browser origins allowed to call the API; "*"
	// allows any.
	CORSOrigins []string

	LogLevel string
	LogFile  string
}

// Load reads .env when present, then the environment. The returned error
// names every missing or malformed key.
func Load() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getenv("PORT", "8080"),
		StoreDriver:     strings.ToLower(getenv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDatabase:   getenv("MONGODB_DATABASE", "citysnap"),
		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		IssueLimitQueue: getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		CORSOrigins:     splitList(getenv("CORS_ORIGINS", "*")),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFile:         os.Getenv("LOG_FILE"),
	}

	var problems []string
	limit, err := strconv.Atoi(getenv("ISSUE_DAILY_LIMIT", "20"))
	if err != nil || limit < 1 {
		problems = append(problems, "ISSUE_DAILY_LIMIT must be a positive integer")
	}
	cfg.IssueDailyLimit = limit

	if cfg.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	for _, o := range cfg.CORSOrigins {
		if o == "*" && len(cfg.CORSOrigins) == 1 {
			continue
		}
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			problems = append(problems, fmt.Sprintf("CORS_ORIGINS entry %q must be an http(s) origin or a lone *", o))
		}
	}
	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite:
		if cfg.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the "+cfg.StoreDriver+" driver")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			problems = append(problems, "MONGODB_URI is required for the mongo driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER %q is not one of postgres, sqlite, mongo", cfg.StoreDriver))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma-separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
