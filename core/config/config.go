// Package config resolves server settings from .env files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/meterscope/meterscope/core/domain"
	"github.com/meterscope/meterscope/core/infrastructure/connectors"
)

// Config is the resolved server configuration
type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	RateLimit       RateLimitConfig
	HistoryCapacity int `validate:"gte=1,lte=10000"`
	ScenariosFile   string
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Port            int           `validate:"gte=1,lte=65535"`
	ClientURL       string        `validate:"omitempty,url"`
	StaticDir       string
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig holds the KWDB settings shared by every pool
type DatabaseConfig struct {
	Host           string        `validate:"required,hostname_rfc1123|ip"`
	Port           int           `validate:"gte=1,lte=65535"`
	User           string        `validate:"required"`
	Password       string
	SSL            bool
	MaxConns       int32         `validate:"gte=1,lte=1000"`
	IdleTimeout    time.Duration `validate:"gte=0"`
	ConnectTimeout time.Duration `validate:"gt=0"`
}

// RateLimitConfig enables the Redis limiter when RedisURL is set
type RateLimitConfig struct {
	RedisURL string        `validate:"omitempty,url"`
	Requests int           `validate:"gte=1"`
	Window   time.Duration `validate:"gt=0"`
}

// PublicDatabase is the non-secret view of DatabaseConfig
type PublicDatabase struct {
	Host      string            `json:"host"`
	Port      int               `json:"port"`
	User      string            `json:"user"`
	SSL       bool              `json:"ssl"`
	Databases []domain.Database `json:"databases"`
}

var validate = validator.New()

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            3001,
			ClientURL:       "http://localhost:5173",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           26257,
			User:           "root",
			MaxConns:       20,
			IdleTimeout:    30 * time.Second,
			ConnectTimeout: 2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
		HistoryCapacity: 50,
	}
}

// FromEnv applies environment overrides to Default and validates the result.
func FromEnv() (Config, error) {
	cfg := Default()

	var errs []string
	setString := func(name string, target *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*target = v
		}
	}
	setInt := func(name string, target *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: expected an integer, got %q", name, v))
				return
			}
			*target = n
		}
	}
	setMillis := func(name string, target *time.Duration) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: expected milliseconds, got %q", name, v))
				return
			}
			*target = time.Duration(n) * time.Millisecond
		}
	}
	setDuration := func(name string, target *time.Duration) {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
				return
			}
			*target = d
		}
	}

	setString("KWDB_HOST", &cfg.Database.Host)
	setInt("KWDB_PORT", &cfg.Database.Port)
	setString("KWDB_USER", &cfg.Database.User)
	setString("KWDB_PASSWORD", &cfg.Database.Password)
	cfg.Database.SSL = os.Getenv("KWDB_SSL") == "true"

	maxConns := int(cfg.Database.MaxConns)
	setInt("KWDB_POOL_MAX", &maxConns)
	cfg.Database.MaxConns = int32(min(maxConns, 1<<20))
	setMillis("KWDB_IDLE_TIMEOUT_MS", &cfg.Database.IdleTimeout)
	setMillis("KWDB_CONNECT_TIMEOUT_MS", &cfg.Database.ConnectTimeout)

	setInt("PORT", &cfg.Server.Port)
	setString("CLIENT_URL", &cfg.Server.ClientURL)
	setString("STATIC_DIR", &cfg.Server.StaticDir)
	setDuration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	setInt("HISTORY_CAPACITY", &cfg.HistoryCapacity)
	setString("SCENARIOS_FILE", &cfg.ScenariosFile)

	setString("REDIS_URL", &cfg.RateLimit.RedisURL)
	setInt("RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	setDuration("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// PoolConfig maps the database settings onto a connector pool template.
// The database name is filled in per pool.
func (c Config) PoolConfig() connectors.PoolConfig {
	return connectors.PoolConfig{
		Host:           c.Database.Host,
		Port:           c.Database.Port,
		User:           c.Database.User,
		Password:       c.Database.Password,
		SSL:            c.Database.SSL,
		MaxConns:       c.Database.MaxConns,
		IdleTimeout:    c.Database.IdleTimeout,
		ConnectTimeout: c.Database.ConnectTimeout,
	}
}

// Public returns the database settings without the password
func (c Config) Public() PublicDatabase {
	return PublicDatabase{
		Host:      c.Database.Host,
		Port:      c.Database.Port,
		User:      c.Database.User,
		SSL:       c.Database.SSL,
		Databases: append([]domain.Database(nil), connectors.PhysicalDatabases...),
	}
}

// AllowedOrigins lists the CORS origins for the dashboard dev servers.
func (c Config) AllowedOrigins() []string {
	origins := []string{c.Server.ClientURL}
	for _, host := range []string{"localhost", "127.0.0.1"} {
		for _, port := range []int{5173, 5174, c.Server.Port} {
			origin := fmt.Sprintf("http://%s:%d", host, port)
			if origin != c.Server.ClientURL {
				origins = append(origins, origin)
			}
		}
	}
	out := origins[:0]
	seen := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o != "" && !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

// LoadEnvFiles attempts to load .env files from multiple locations and stops
// at the first successful load. Priority order:
// 1. fromDir (if not empty)
// 2. the current working directory
// 3. the directory containing the executable
// Variables already set in the environment always win.
func LoadEnvFiles(fromDir string) string {
	envFiles := []string{".env.local", ".env.development", ".env"}

	tryDir := func(dir string) string {
		for _, envFile := range envFiles {
			envPath := envFile
			if dir != "" {
				envPath = filepath.Join(dir, envFile)
			}
			if err := godotenv.Load(envPath); err == nil {
				return envPath
			}
		}
		return ""
	}

	if fromDir != "" {
		if loaded := tryDir(fromDir); loaded != "" {
			return loaded
		}
	}

	if loaded := tryDir(""); loaded != "" {
		return loaded
	}

	if execPath, err := os.Executable(); err == nil {
		if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = realPath
		}
		return tryDir(filepath.Dir(execPath))
	}
	return ""
}
