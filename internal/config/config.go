package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const devSecret = "agentdesk-dev-secret-change-me"

func devOrigins(env string) string {
	if env == "production" {
		return ""
	}
	return "http://localhost:5173"
}

type Config struct {
	Port string
	Env  string

	Database DatabaseConfig
	Session  SessionConfig
	Auth     AuthConfig
	Log      LogConfig

	SeedDefaultUsers       bool
	StrictManagerMessaging bool
	// Location decides where one calendar day ends and the next begins.
	Location *time.Location
	// CORSAllowedOrigins are the browser origins allowed to call the API
	// with credentials.
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	TimeZone    string
	AutoMigrate bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

type SessionConfig struct {
	Secret        string
	Store         string // memory or redis
	RedisAddr     string
	RedisPassword string
	MaxAge        time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	LoginRatePerMinute int
	LoginBurst         int
}

type LogConfig struct {
	File  string
	Level string
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads .env (when present) and the process environment. Every invalid
// variable is reported in the returned error, not just the first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on environment")
	}

	p := &parser{}
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			Name:            getEnv("DB_NAME", "agentdesk"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			AutoMigrate:     p.bool("DB_AUTO_MIGRATE", false),
			MaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", ""),
			Store:         strings.ToLower(getEnv("SESSION_STORE", "memory")),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			MaxAge:        p.duration("SESSION_MAX_AGE", 24*time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TokenTTL:           p.duration("TOKEN_TTL", 72*time.Hour),
			LoginRatePerMinute: p.int("LOGIN_RATE_PER_MINUTE", 30),
			LoginBurst:         p.int("LOGIN_BURST", 5),
		},
		Log: LogConfig{
			File:  getEnv("LOG_FILE", "./logs/app.log"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SeedDefaultUsers:       p.bool("SEED_DEFAULT_USERS", true),
		StrictManagerMessaging: p.bool("STRICT_MANAGER_MESSAGING", true),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		p.fail("PORT", cfg.Port)
	}
	if cfg.Session.Store != "memory" && cfg.Session.Store != "redis" {
		p.fail("SESSION_STORE", cfg.Session.Store)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		p.fail("LOG_LEVEL", cfg.Log.Level)
	}
	if cfg.Auth.LoginRatePerMinute < 1 {
		p.fail("LOGIN_RATE_PER_MINUTE", strconv.Itoa(cfg.Auth.LoginRatePerMinute))
	}
	cfg.CORSAllowedOrigins = p.origins("CORS_ALLOWED_ORIGINS", devOrigins(cfg.Env))
	tz := getEnv("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		p.fail("TIMEZONE", tz)
		loc = time.UTC
	}
	cfg.Location = loc

	if err := p.err(); err != nil {
		return nil, err
	}

	if cfg.Session.Secret == "" || cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET and JWT_SECRET are required in production")
		}
		logrus.Warn("SESSION_SECRET or JWT_SECRET not set, using development default")
		if cfg.Session.Secret == "" {
			cfg.Session.Secret = devSecret
		}
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = devSecret
		}
	}
	return cfg, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// parser collects every malformed variable so Load can report them together.
type parser struct {
	problems []string
}

func (p *parser) fail(key, value string) {
	p.problems = append(p.problems, fmt.Sprintf("%s=%q", key, value))
}

func (p *parser) int(key string, def int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		p.fail(key, raw)
		return def
	}
	return v
}

// origins parses a comma separated list of http(s) origins. A wildcard is
// refused because credentialed requests cannot use one.
func (p *parser) origins(key, def string) []string {
	raw := getEnv(key, def)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		o := strings.TrimRight(strings.TrimSpace(part), "/")
		if o == "" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path != "" {
			p.fail(key, part)
			continue
		}
		out = append(out, o)
	}
	return out
}

func (p *parser) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(p.problems, ", "))
}
