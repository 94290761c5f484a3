// Package config loads settings for the client and the service from
// defaults, an optional TOML file, ORDERTRACK_* environment variables and
// command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ordertrack/internal/rpc"
)

// Config holds application configuration.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Stack     StackConfig     `mapstructure:"stack"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Lookup    LookupConfig    `mapstructure:"lookup"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
}

// ServiceConfig locates the order service the client talks to.
type ServiceConfig struct {
	URL string `mapstructure:"url"`
}

type RPCConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// StackConfig selects how reopening an opened order affects the stack.
// Client and service must use the same policy.
type StackConfig struct {
	Policy string `mapstructure:"policy"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LookupConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
}

// GeocoderConfig points at a Nominatim-compatible search endpoint used for
// city suggestions. An empty URL disables them.
type GeocoderConfig struct {
	URL     string `mapstructure:"url"`
	Country string `mapstructure:"country"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"config":       "",
	"service-url":  "service.url",
	"rpc-timeout":  "rpc.timeout",
	"stack-policy": "stack.policy",
	"log-file":     "log.file",
	"log-level":    "log.level",
	"addr":         "server.addr",
	"db":           "database.path",
}

// Flags returns a flag set carrying every overridable setting.
func Flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", "", "path to config file (TOML)")
	fs.String("service-url", "", "order service base URL")
	fs.Duration("rpc-timeout", 0, "per-command timeout")
	fs.String("stack-policy", "", "opened stack policy: append or mru")
	fs.String("log-file", "", "log file path")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("addr", "", "service listen address")
	fs.String("db", "", "service database path")
	return fs
}

func defaults(v *viper.Viper) {
	v.SetDefault("service.url", rpc.DefaultURL)
	v.SetDefault("rpc.timeout", rpc.DefaultTimeout)
	v.SetDefault("stack.policy", string(rpc.PolicyAppend))
	v.SetDefault("log.file", filepath.Join(cacheDir(), "ordertrack.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("database.path", filepath.Join(dataDir(), "orders.db"))
	v.SetDefault("lookup.debounce", 150*time.Millisecond)
	v.SetDefault("telemetry.service_name", "ordertrack")
	v.SetDefault("geocoder.url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocoder.country", "fr")
}

// Load reads configuration. fs may be nil; otherwise it must already be
// parsed and only flags the user set take effect. Env var overrides use
// prefix ORDERTRACK_.
func Load(fs *flag.FlagSet) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigType("toml")
	cfgPath := os.Getenv("ORDERTRACK_CONFIG")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			cfgPath = f.Value.String()
		}
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(configDir(), "ordertrack"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ORDERTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if key == "" || f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("stack.policy: %w", err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.RPC.Timeout < 0 {
		return errors.New("rpc.timeout: must not be negative")
	}
	if strings.TrimSpace(c.Service.URL) == "" {
		return errors.New("service.url: required")
	}
	return nil
}

// Policy is the parsed stack policy.
func (c Config) Policy() (rpc.StackPolicy, error) {
	return rpc.ParseStackPolicy(c.Stack.Policy)
}

// OpenLogger returns a text logger writing to the configured file. The
// returned closer releases the file.
func (c LogConfig) OpenLogger() (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, nil, err
	}
	if c.File == "" || c.File == "-" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func cacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "ordertrack")
	}
	return filepath.Join(os.TempDir(), "ordertrack")
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "ordertrack")
}
