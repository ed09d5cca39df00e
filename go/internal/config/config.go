// Package config loads the client's settings from an optional YAML file
// overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	TransportWS   = "ws"
	TransportNATS = "nats"
)

type Config struct {
	BackendURL string `yaml:"backend_url"`
	Transport  string `yaml:"transport"`
	NATSURL    string `yaml:"nats_url"`
	BridgeAddr string `yaml:"bridge_addr"`
	LogLevel   string `yaml:"log_level"`
	MinPlayers int    `yaml:"min_players"`
	Timer      Timer  `yaml:"timer"`
	WS         WS     `yaml:"ws"`
}

type Timer struct {
	DisplayOffsetSec  int `yaml:"display_offset_sec"`
	AutoSubmitLeadSec int `yaml:"auto_submit_lead_sec"`
	MinSec            int `yaml:"min_sec"`
	MaxSec            int `yaml:"max_sec"`
}

type WS struct {
	Path         string        `yaml:"path"`
	PingInterval time.Duration `yaml:"ping_interval"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		BackendURL: "http://localhost:3001",
		Transport:  TransportWS,
		NATSURL:    "nats://127.0.0.1:4222",
		BridgeAddr: ":8090",
		LogLevel:   "info",
		MinPlayers: 2,
		Timer: Timer{
			DisplayOffsetSec:  3,
			AutoSubmitLeadSec: 2,
			MinSec:            20,
			MaxSec:            1200,
		},
		WS: WS{
			Path:         "/ws",
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
			ReadTimeout:  60 * time.Second,
		},
	}
}

// Load reads path (skipped when empty) over the defaults, applies the
// environment and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BackendURL = getEnv("CSSCHAIN_BACKEND_URL", c.BackendURL)
	c.Transport = getEnv("CSSCHAIN_TRANSPORT", c.Transport)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.BridgeAddr = getEnv("CSSCHAIN_BRIDGE_ADDR", c.BridgeAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MinPlayers = getEnvAsInt("CSSCHAIN_MIN_PLAYERS", c.MinPlayers)
	c.Timer.DisplayOffsetSec = getEnvAsInt("CSSCHAIN_DISPLAY_OFFSET_SEC", c.Timer.DisplayOffsetSec)
	c.Timer.AutoSubmitLeadSec = getEnvAsInt("CSSCHAIN_AUTO_SUBMIT_LEAD_SEC", c.Timer.AutoSubmitLeadSec)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend_url %q must be an http(s) URL", c.BackendURL)
	}
	switch c.Transport {
	case TransportWS:
		if c.WS.PingInterval <= 0 || c.WS.ReadTimeout <= c.WS.PingInterval {
			return errors.New("ws.read_timeout must be longer than a positive ws.ping_interval")
		}
	case TransportNATS:
		if c.NATSURL == "" {
			return errors.New("nats_url is required for the nats transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.MinPlayers < 1 {
		return errors.New("min_players must be at least 1")
	}
	if c.Timer.AutoSubmitLeadSec <= 0 {
		return errors.New("timer.auto_submit_lead_sec must be positive")
	}
	if c.Timer.MinSec <= 0 || c.Timer.MinSec > c.Timer.MaxSec {
		return fmt.Errorf("timer bounds %d-%d are invalid", c.Timer.MinSec, c.Timer.MaxSec)
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// WebSocketURL is the backend URL with a ws scheme and the ws path.
func (c Config) WebSocketURL() string {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = c.WS.Path
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
