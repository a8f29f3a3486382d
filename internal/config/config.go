package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "FORMDEMO_"

// Config is the runtime configuration of the formdemo binary.
type Config struct {
	Server  Server  `yaml:"server"  envPrefix:"SERVER_"`
	Session Session `yaml:"session" envPrefix:"SESSION_"`
	Log     Log     `yaml:"log"     envPrefix:"LOG_"`
	Submit  Submit  `yaml:"submit"  envPrefix:"SUBMIT_"`
	Theme   Theme   `yaml:"theme"   envPrefix:"THEME_"`
}

// Server tunes the HTTP listener.
type Server struct {
	Addr          string        `yaml:"addr"           env:"ADDR"`
	ReadTimeout   time.Duration `yaml:"read_timeout"   env:"READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout"  env:"WRITE_TIMEOUT"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace" env:"SHUTDOWN_GRACE"`
	// MaxUploadBytes caps multipart bodies on change and submit.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	CSRF           bool  `yaml:"csrf"             env:"CSRF"`
}

// Session tunes the per-visitor form store.
type Session struct {
	CookieName  string        `yaml:"cookie_name"  env:"COOKIE_NAME"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	MaxSessions int           `yaml:"max_sessions" env:"MAX_SESSIONS"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `yaml:"level"  env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Submit selects where submissions are delivered. Without a webhook the
// record is only logged.
type Submit struct {
	WebhookURL string            `yaml:"webhook_url" env:"WEBHOOK_URL"`
	Timeout    time.Duration     `yaml:"timeout"     env:"TIMEOUT"`
	Message    string            `yaml:"message"     env:"MESSAGE"`
	Headers    map[string]string `yaml:"headers"     env:"HEADERS"`
}

// Theme picks the go-theme variant for the page.
type Theme struct {
	Name    string `yaml:"name"    env:"NAME"`
	Variant string `yaml:"variant" env:"VARIANT"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   15 * time.Second,
			ShutdownGrace:  10 * time.Second,
			MaxUploadBytes: 10 << 20,
			CSRF:           true,
		},
		Session: Session{
			CookieName:  "formdemo_session",
			IdleTimeout: 30 * time.Minute,
			MaxSessions: 1024,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Submit: Submit{
			Timeout: 5 * time.Second,
		},
	}
}

// LoadOptions control Load.
type LoadOptions struct {
	// Path is an optional YAML file.
	Path string
	// Environment replaces os.Environ when set, for tests.
	Environment map[string]string
}

// Load layers defaults, the YAML file and FORMDEMO_* variables, then
// validates the result.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(opts.Path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	envOpts := env.Options{Prefix: EnvPrefix}
	if opts.Environment != nil {
		envOpts.Environment = opts.Environment
	}
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownGrace < 0 {
		errs = append(errs, errors.New("server.shutdown_grace must not be negative"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("session.idle_timeout must be positive"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SlogLevel parses Level the way slog spells levels.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
