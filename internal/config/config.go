package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	Enabled         bool          `mapstructure:"enabled"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ProtocolConfig struct {
	Definition  string   `mapstructure:"definition"`
	SearchPaths []string `mapstructure:"search_paths"`
	Iterations  int      `mapstructure:"iterations"`
	// Seed fixes the data_bytes filler sequence. Zero picks a random seed.
	Seed uint64 `mapstructure:"seed"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// AuthConfig guards the routes that change system state. OperatorKeyHash is
// an Argon2id hash as printed by cmd/hashkey.
type AuthConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	OperatorKeyHash string        `mapstructure:"operator_key_hash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("protocol.definition", "modbus_rtu")
	v.SetDefault("protocol.search_paths", []string{"configs/protocols"})
	v.SetDefault("protocol.iterations", 10)
	v.SetDefault("protocol.seed", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "donp")
	v.SetDefault("database.user", "donp")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("auth.operator_key_hash", "")
}

// Load reads the YAML file at path. Every key can be overridden from the
// environment with the DONP_ prefix, e.g. DONP_SERVER_HTTP_PORT.
// An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DONP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Protocol.Iterations <= 0 {
		return nil, fmt.Errorf("protocol.iterations must be positive, got %d", config.Protocol.Iterations)
	}

	if config.Auth.Enabled && (config.Auth.JWTSecret == "" || config.Auth.OperatorKeyHash == "") {
		return nil, fmt.Errorf("auth.enabled requires auth.jwt_secret and auth.operator_key_hash")
	}

	return &config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// NewLogger builds the process logger from the logging section.
func (c *LoggingConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
