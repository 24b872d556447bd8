// Package config handles loading and validating the roomcall configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the roomcall daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Store      StoreConfig      `mapstructure:"store"`
	Renderer   RendererConfig   `mapstructure:"renderer"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Onboarding OnboardingConfig `mapstructure:"onboarding"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// MQTTConfig configures the MQTT transport.
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	Topic       string `mapstructure:"topic"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         int    `mapstructure:"qos"`
	ReplyPrefix string `mapstructure:"reply_prefix"` // reply topics clients may request
}

// CatalogConfig points at the room catalog.
type CatalogConfig struct {
	Path         string `mapstructure:"path"`
	TabCacheSize int    `mapstructure:"tab_cache_size"`
}

// StoreConfig selects the state store.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "memory" or "redis"
	URL     string `mapstructure:"url"`     // redis://host:6379/0
	Prefix  string `mapstructure:"prefix"`

	// DeviceMapFile is used for device records when the store is unreachable.
	DeviceMapFile string `mapstructure:"device_map_file"`
}

// RendererConfig configures the HTTP renderer client.
type RendererConfig struct {
	Endpoint string            `mapstructure:"endpoint"` // base URL; route name is appended
	Routes   map[string]string `mapstructure:"routes"`   // route name -> full URL override
	Token    string            `mapstructure:"token"`
	Timeout  time.Duration     `mapstructure:"timeout"`
}

// ResolverConfig tunes domain resolution.
type ResolverConfig struct {
	PriorityRooms []string `mapstructure:"priority_rooms"`
	TabDomains    []string `mapstructure:"tab_domains"`
}

// OnboardingConfig controls the device onboarding wizard.
type OnboardingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./roomcall.yaml, ./configs/roomcall.yaml, /etc/roomcall/roomcall.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.mqtt.enabled", false)
	v.SetDefault("transports.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("transports.mqtt.topic", "roomcall/turns")
	v.SetDefault("transports.mqtt.qos", 1)
	v.SetDefault("catalog.path", "configs/catalog.yaml")
	v.SetDefault("catalog.tab_cache_size", 64)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.prefix", "roomcall:")
	v.SetDefault("store.device_map_file", "data/devices.json")
	v.SetDefault("renderer.endpoint", "http://localhost:8090/render")
	v.SetDefault("renderer.timeout", "10s")
	v.SetDefault("resolver.priority_rooms", []string{"kueche", "bad"})
	v.SetDefault("resolver.tab_domains", []string{"geraete", "bewaesserung"})
	v.SetDefault("onboarding.enabled", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("roomcall")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/roomcall")
	}

	// Environment variables: ROOMCALL_SERVER_HEALTH_PORT, ROOMCALL_STORE_BACKEND, etc.
	v.SetEnvPrefix("ROOMCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional; env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${REDIS_URL}")
	cfg.Store.URL = resolveEnvRef(cfg.Store.URL)
	cfg.Renderer.Token = resolveEnvRef(cfg.Renderer.Token)
	cfg.Transports.MQTT.Password = resolveEnvRef(cfg.Transports.MQTT.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.URL == "" {
			return errors.New("config: store.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Transports.MQTT.QoS < 0 || c.Transports.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt qos must be 0, 1 or 2, got %d", c.Transports.MQTT.QoS)
	}
	if c.Renderer.Endpoint == "" && len(c.Renderer.Routes) == 0 {
		return errors.New("config: renderer.endpoint or renderer.routes is required")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	slog.SetDefault(slog.New(newHandler(cfg, os.Stdout)))
}

func newHandler(cfg LoggingConfig, w io.Writer) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
