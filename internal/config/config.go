// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv reads variables from the named files, or .env when none are
// given, without overriding variables already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Host            string        `env:"TABULA_HOST" envDefault:"localhost"`
	Port            int           `env:"TABULA_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"TABULA_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"TABULA_WRITE_TIMEOUT" envDefault:"0s"`
	IdleTimeout     time.Duration `env:"TABULA_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"TABULA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	FastWorkers     int           `env:"TABULA_FAST_WORKERS" envDefault:"100"`
	SlowWorkers     int           `env:"TABULA_SLOW_WORKERS" envDefault:"4"`
	DBPath          string        `env:"TABULA_DB_PATH"`
	Log             LogConfig
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `env:"TABULA_LOG_LEVEL" envDefault:"info"`
	Format string `env:"TABULA_LOG_FORMAT" envDefault:"text"`
}

// LoadServerConfig loads .env, then parses the environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges the env parser cannot express.
func (c ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.FastWorkers < 0 || c.SlowWorkers < 0 {
		return errors.New("worker counts must not be negative")
	}
	_, err := c.Log.Logger()
	return err
}

// Logger builds a logrus logger writing to stderr.
func (c LogConfig) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	l := logrus.New()
	l.SetLevel(level)
	switch strings.ToLower(c.Format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want text or json", c.Format)
	}
	return l, nil
}
