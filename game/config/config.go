package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Defaults applied before the file and the environment are read.
const (
	DefaultHost         = "localhost"
	DefaultPort         = 5000
	DefaultAIDelay      = 500 * time.Millisecond
	DefaultDatabasePath = "tictactoe.db"
	DefaultTokenTTL     = 30 * 24 * time.Hour
)

// Config is the server configuration.
type Config struct {
	Host           string        `yaml:"host" env:"HOST"`
	Port           int           `yaml:"port" env:"PORT"`
	AIDelay        time.Duration `yaml:"aiDelay" env:"AI_DELAY"`
	DatabasePath   string        `yaml:"databasePath" env:"DATABASE_PATH"`
	JWTSecret      string        `yaml:"jwtSecret" env:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"tokenTTL" env:"TOKEN_TTL"`
	AllowedOrigins []string      `yaml:"allowedOrigins" env:"ALLOWED_ORIGINS" envSeparator:","`

	Ngrok NgrokConfig `yaml:"ngrok"`
}

// NgrokConfig controls the optional public tunnel.
type NgrokConfig struct {
	Enabled   bool   `yaml:"enabled" env:"NGROK_ENABLED"`
	AuthToken string `yaml:"authToken" env:"NGROK_AUTHTOKEN"`
	Domain    string `yaml:"domain" env:"NGROK_DOMAIN"`
}

// Default returns a Config holding only defaults.
func Default() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		AIDelay:      DefaultAIDelay,
		DatabasePath: DefaultDatabasePath,
		TokenTTL:     DefaultTokenTTL,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and then the environment. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.Ngrok.AuthToken == "" {
		cfg.Ngrok.AuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile builds a Config from defaults and the YAML file at path, ignoring
// the environment. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ParseEnv overlays environment variables onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.AIDelay < 0 {
		return fmt.Errorf("%w: aiDelay must not be negative", ErrInvalidConfig)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: tokenTTL must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("%w: databasePath is required", ErrInvalidConfig)
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthEnabled reports whether account routes can issue tokens.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}
