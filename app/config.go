package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/ggoodman/keycloak-auth-go/internal/logctx"
	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost      = "127.0.0.1"
	defaultPort      = 8080
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
)

// Config is the application configuration file.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Logger LoggerConfig `yaml:"logger"`
	// Settings holds application-specific sections, e.g. keycloak_settings.
	// It is nil when the file has no settings key.
	Settings map[string]any `yaml:"settings"`
}

// ServerConfig controls the HTTP listener. ENV overrides: SERVER_HOST,
// SERVER_PORT.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggerConfig controls the process logger. ENV overrides: LOG_LEVEL,
// LOG_FORMAT.
type LoggerConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" env:"LOG_LEVEL"`
	// Format is json or text.
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// LoadConfig reads the YAML file at path, then applies environment
// overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig is LoadConfig for an in-memory document.
func ParseConfig(doc []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(doc, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config env overrides: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Logger.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Logger.Level == "" {
		c.Logger.Level = defaultLogLevel
	}
	if c.Logger.Format == "" {
		c.Logger.Format = defaultLogFormat
	}
}

func (l LoggerConfig) validate() error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return fmt.Errorf("logger level %q: %w", l.Level, err)
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("logger format %q: want json or text", l.Format)
	}
}

// NewLogger builds the process logger described by l. Records logged with a
// request context carry request and principal attributes.
func (l LoggerConfig) NewLogger(w io.Writer) *slog.Logger {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(l.Level))
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.EqualFold(l.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return logctx.Wrap(slog.New(h))
}
