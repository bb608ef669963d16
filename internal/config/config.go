// Package config loads layered configuration: struct defaults, an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/crossfade/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CROSSFADE_CONFIG"

// envPrefix namespaces Crossfade's environment variables.
const envPrefix = "CROSSFADE_"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Spotify SpotifyConfig `koanf:"spotify"`
	Storage StorageConfig `koanf:"storage"`
	Engine  EngineConfig  `koanf:"engine"`
	Logging LoggingConfig `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type SpotifyConfig struct {
	ClientID          string  `koanf:"client_id"`
	ClientSecret      string  `koanf:"client_secret"`
	SearchLimit       int     `koanf:"search_limit"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

type StorageConfig struct {
	// Path is the SQLite archive file. Empty disables archiving; the
	// service then runs memory-only.
	Path      string `koanf:"path"`
	QueueSize int    `koanf:"queue_size"`
	Workers   int    `koanf:"workers"`
}

type EngineConfig struct {
	TopN          int           `koanf:"top_n"`
	BPMTolerance  float64       `koanf:"bpm_tolerance"`
	SourceTimeout time.Duration `koanf:"source_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Spotify: SpotifyConfig{
			SearchLimit:       50,
			RequestsPerSecond: 10,
		},
		Storage: StorageConfig{
			Path:      "crossfade.db",
			QueueSize: 100,
			Workers:   2,
		},
		Engine: EngineConfig{
			TopN:          5,
			BPMTolerance:  5,
			SourceTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load builds the configuration with precedence ENV > file > defaults.
// A .env file in the working directory is loaded first, matching how
// the Spotify credentials have always been supplied.
func Load() (*Config, error) {
	_ = godotenv.Load() // best-effort; absence is fine

	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// CROSSFADE_SERVER_PORT -> server.port
	// CROSSFADE_ENGINE_BPM_TOLERANCE -> engine.bpm_tolerance
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// The bare credential names predate the CROSSFADE_ namespace and
	// stay honoured.
	if cfg.Spotify.ClientID == "" {
		cfg.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if cfg.Spotify.ClientSecret == "" {
		cfg.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps an environment variable to a koanf path. Sections
// are single words, so only the first underscore becomes a separator.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(s, "_", ".", 1)
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate fails fast on configuration the service cannot run without.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("config: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Engine.TopN <= 0 {
		return fmt.Errorf("config: engine.top_n must be positive, got %d", c.Engine.TopN)
	}
	if c.Engine.BPMTolerance < 0 {
		return fmt.Errorf("config: engine.bpm_tolerance must not be negative, got %v", c.Engine.BPMTolerance)
	}
	return nil
}
