package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	// ShutdownDrainDelay is how long /ready reports draining before the
	// server stops accepting connections.
	ShutdownDrainDelay time.Duration

	DBURL         string
	DBMaxConns    int32
	DBAutoMigrate bool
	StoreDriver   string

	JWTSecret string
	JWTExpire string

	CORSOrigins  []string
	MaxBodyBytes int64

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	AuthRateLimitPerMin int

	OTLPEndpoint string
	ServiceName  string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads the process environment once at startup. The signing secret is
// the only mandatory key.
func Load() (Config, error) {
	cfg := Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnvInt("PORT", 5000),
		APIPrefix: getEnv("API_PREFIX", "/api"),

		ShutdownDrainDelay: getEnvDuration("SHUTDOWN_DRAIN_DELAY", 5*time.Second),

		DBURL:         getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 5)),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		StoreDriver:   getEnv("STORE_DRIVER", "postgres"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTExpire: getEnv("JWT_EXPIRE", "7d"),

		CORSOrigins:  splitList(getEnv("CORS_ORIGIN", "http://localhost:3000")),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 10<<20)),

		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "authbase-api"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     os.Getenv("ADMIN_NAME"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingJWTSecret
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "authbase")
	pass := getEnv("DB_PASSWORD", "authbase")
	name := getEnv("DB_NAME", "authbase")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("ignoring non-integer env value", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("ignoring non-boolean env value", "key", key, "value", v)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := str2duration.ParseDuration(v)
		if err != nil || d < 0 {
			slog.Warn("ignoring invalid duration env value", "key", key, "value", v)
			return fallback
		}
		return d
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
