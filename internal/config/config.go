// Package config loads harness settings from defaults, an optional YAML file,
// CDCHIL_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	serial "github.com/allbin/serial-hil"
	"github.com/allbin/serial-hil/duplex"
	"github.com/allbin/serial-hil/verify"
)

// EnvPrefix prefixes every environment variable read by the harness
const EnvPrefix = "CDCHIL"

// Enumerator and transport backends
const (
	EnumeratorSysfs = "sysfs"
	EnumeratorBugst = "bugst"

	TransportNative = "native"
	TransportBugst  = "bugst"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds every harness setting
type Config struct {
	Identity    string                   `mapstructure:"identity"`
	MinPorts    int                      `mapstructure:"min_ports"`
	ChunkSize   int                      `mapstructure:"chunk_size"`
	ReadTimeout time.Duration            `mapstructure:"read_timeout"`
	BaudRate    int                      `mapstructure:"baud_rate"`
	Enumerator  string                   `mapstructure:"enumerator"`
	Transport   string                   `mapstructure:"transport"`
	Root        string                   `mapstructure:"root"`
	Cores       int                      `mapstructure:"cores"`
	Evidence    []verify.EvidencePattern `mapstructure:"evidence"`
	LogLevel    string                   `mapstructure:"log_level"`
}

// New returns a viper instance with the harness defaults and environment binding
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("identity", "20b1:4000")
	v.SetDefault("min_ports", 2)
	v.SetDefault("chunk_size", duplex.DefaultChunkSize)
	v.SetDefault("read_timeout", "5s")
	v.SetDefault("baud_rate", 115200)
	v.SetDefault("enumerator", EnumeratorSysfs)
	v.SetDefault("transport", TransportNative)
	v.SetDefault("root", ".")
	v.SetDefault("cores", 2)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes v into a validated Config.
// With an empty path, cdchil.yaml in the working directory is used when present.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cdchil")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend names
func (c Config) Validate() error {
	if _, err := c.DeviceIdentity(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.MinPorts < 2 {
		return fmt.Errorf("%w: min_ports must be at least 2 for a duplex run, got %d", ErrInvalid, c.MinPorts)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be at least 1, got %d", ErrInvalid, c.ChunkSize)
	}
	if c.Cores < 1 {
		return fmt.Errorf("%w: cores must be at least 1, got %d", ErrInvalid, c.Cores)
	}
	cfg := serial.DefaultConfig()
	for _, opt := range c.SerialOptions() {
		if err := opt(&cfg); err != nil {
			return fmt.Errorf("%w: serial settings (baud_rate=%d read_timeout=%s): %v", ErrInvalid, c.BaudRate, c.ReadTimeout, err)
		}
	}
	switch c.Enumerator {
	case EnumeratorSysfs, EnumeratorBugst:
	default:
		return fmt.Errorf("%w: enumerator must be %q or %q, got %q", ErrInvalid, EnumeratorSysfs, EnumeratorBugst, c.Enumerator)
	}
	switch c.Transport {
	case TransportNative, TransportBugst:
	default:
		return fmt.Errorf("%w: transport must be %q or %q, got %q", ErrInvalid, TransportNative, TransportBugst, c.Transport)
	}
	for i, e := range c.Evidence {
		if e.Path == "" || e.Pattern == "" {
			return fmt.Errorf("%w: evidence[%d] needs path and pattern", ErrInvalid, i)
		}
		if e.Expected < 0 {
			return fmt.Errorf("%w: evidence[%d] expected count is negative", ErrInvalid, i)
		}
	}
	return nil
}

// DeviceIdentity parses the configured VID:PID
func (c Config) DeviceIdentity() (serial.DeviceIdentity, error) {
	return serial.ParseIdentity(c.Identity)
}

// SerialOptions returns the port options shared by both transports
func (c Config) SerialOptions() []serial.Option {
	return []serial.Option{
		serial.WithBaudRate(c.BaudRate),
		serial.WithReadTimeout(c.ReadTimeout),
	}
}

// PortEnumerator returns the configured enumeration backend
func (c Config) PortEnumerator() serial.Enumerator {
	if c.Enumerator == EnumeratorBugst {
		return serial.BugstEnumerator{}
	}
	return serial.SysfsEnumerator{}
}

// Opener returns a stream opener for the configured transport
func (c Config) Opener() duplex.Opener {
	open := serial.Open
	if c.Transport == TransportBugst {
		open = serial.OpenBugst
	}
	opts := c.SerialOptions()
	return func(path string) (duplex.Stream, error) {
		return open(path, opts...)
	}
}

// Patterns returns the evidence patterns to validate. Without configured
// evidence the default target and host reports under Root are used. Relative
// evidence paths are resolved against Root.
func (c Config) Patterns() []verify.EvidencePattern {
	if len(c.Evidence) == 0 {
		return verify.DefaultPatterns(c.Root, c.Cores)
	}
	patterns := make([]verify.EvidencePattern, len(c.Evidence))
	for i, e := range c.Evidence {
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(c.Root, e.Path)
		}
		patterns[i] = e
	}
	return patterns
}
