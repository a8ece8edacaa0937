// Package config loads application settings from defaults, an optional YAML
// file, an optional .env file and environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"todo_service/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is the insecure fallback used when no secret is configured.
const DefaultJWTSecret = "your-secret-key"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const envPrefix = "TODO"

type Config struct {
	Port    string
	Log     LogConfig
	DB      DBConfig
	Auth    AuthConfig
	Server  ServerConfig
	Metrics MetricsConfig
}

type LogConfig struct {
	Level string
}

type DBConfig struct {
	Driver string
	Path   string // sqlite file
	DSN    string // postgres

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// UsingDefaultSecret reports whether the insecure fallback secret is active.
func (a AuthConfig) UsingDefaultSecret() bool {
	return a.JWTSecret == DefaultJWTSecret
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", logger.InfoLevel)

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "app.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime", 5*time.Minute)

	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("metrics.enabled", true)
}

// Load reads configuration. An empty path looks for configs/config.yml and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// legacy names
	_ = v.BindEnv("auth.jwt_secret", envPrefix+"_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("port", envPrefix+"_PORT", "PORT")

	cfg := &Config{
		Port: v.GetString("port"),
		Log:  LogConfig{Level: v.GetString("log.level")},
		DB: DBConfig{
			Driver:          strings.ToLower(v.GetString("db.driver")),
			Path:            v.GetString("db.path"),
			DSN:             v.GetString("db.dsn"),
			MaxConns:        v.GetInt32("db.max_conns"),
			MinConns:        v.GetInt32("db.min_conns"),
			MaxConnLifetime: v.GetDuration("db.max_conn_lifetime"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Server: ServerConfig{
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
		Metrics: MetricsConfig{Enabled: v.GetBool("metrics.enabled")},
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DefaultJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("db.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DB.DSN == "" {
			return errors.New("db.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown db.driver %q (want %s, %s or %s)",
			c.DB.Driver, DriverSQLite, DriverPostgres, DriverMemory)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %v", c.Auth.TokenTTL)
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	return nil
}
