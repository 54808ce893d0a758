package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the main configuration for chordbook.
type Config struct {
	UserID       string             `toml:"user_id" mapstructure:"user_id" validate:"required"`
	BaseDir      string             `toml:"base_dir" mapstructure:"base_dir" validate:"required"`
	LogDir       string             `toml:"log_dir" mapstructure:"log_dir" validate:"required"`
	Remote       RemoteConfig       `toml:"remote" mapstructure:"remote"`
	Store        StoreConfig        `toml:"store" mapstructure:"store"`
	Encryption   EncryptionConfig   `toml:"encryption" mapstructure:"encryption"`
	Connectivity ConnectivityConfig `toml:"connectivity" mapstructure:"connectivity"`
}

// RemoteConfig describes the server the cache mirrors.
type RemoteConfig struct {
	BaseURL    string   `toml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Token      string   `toml:"token,omitempty" mapstructure:"token"`
	Timeout    Duration `toml:"timeout" mapstructure:"timeout" validate:"min=0"` // 0 means no client timeout
	HealthPath string   `toml:"health_path" mapstructure:"health_path" validate:"required,startswith=/"`
}

// StoreConfig represents configuration for the local record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type    string `toml:"type" mapstructure:"type" validate:"oneof=memory filesystem sqlite redis"`
	Dir     string `toml:"dir,omitempty" mapstructure:"dir" validate:"required_if=Type filesystem,required_if=Type sqlite"`
	Encrypt bool   `toml:"encrypt,omitempty" mapstructure:"encrypt"` // filesystem only

	// Redis-specific fields (only used when Type == "redis")
	RedisURL    string `toml:"redis_url,omitempty" mapstructure:"redis_url" validate:"required_if=Type redis"`
	RedisPrefix string `toml:"redis_prefix,omitempty" mapstructure:"redis_prefix"`
}

// EncryptionConfig holds paths to the age key pair used for at-rest encryption.
type EncryptionConfig struct {
	Type           string `toml:"type" mapstructure:"type" validate:"omitempty,oneof=age test"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path" mapstructure:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path" mapstructure:"private_key_path"`
}

// ConnectivityConfig tunes reachability probing.
type ConnectivityConfig struct {
	PollInterval  Duration `toml:"poll_interval" mapstructure:"poll_interval" validate:"gt=0"`
	ProbeAttempts uint     `toml:"probe_attempts" mapstructure:"probe_attempts" validate:"min=1"`
	ProbeDelay    Duration `toml:"probe_delay" mapstructure:"probe_delay" validate:"min=0"`
	ForceOffline  bool     `toml:"force_offline" mapstructure:"force_offline"`
}

// Duration is a time.Duration written as "30s" in the config file.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// NewConfig creates a new Config with the provided values and defaults for
// everything else.
func NewConfig(userID, baseDir, baseURL string) *Config {
	return &Config{
		UserID:  userID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Remote: RemoteConfig{
			BaseURL:    baseURL,
			HealthPath: "/health",
		},
		Store: StoreConfig{
			Type:        "sqlite",
			Dir:         filepath.Join(baseDir, "store"),
			RedisPrefix: "chordbook:",
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "chordbook.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "chordbook.key"),
		},
		Connectivity: ConnectivityConfig{
			PollInterval:  Duration(30 * time.Second),
			ProbeAttempts: 2,
			ProbeDelay:    Duration(time.Second),
		},
	}
}

// Manager handles writing configuration files.
type Manager struct{}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads the config file at path. Values missing from the file get
// defaults, and CHORDBOOK_<SECTION>_<KEY> environment variables override the
// file (CHORDBOOK_REMOTE_TOKEN, CHORDBOOK_CONNECTIVITY_FORCE_OFFLINE, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("CHORDBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if cfg.LogDir == "" && cfg.BaseDir != "" {
		cfg.LogDir = filepath.Join(cfg.BaseDir, "log")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user_id", "")
	v.SetDefault("base_dir", "")
	v.SetDefault("log_dir", "")
	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.timeout", "0s")
	v.SetDefault("remote.health_path", "/health")
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.dir", "")
	v.SetDefault("store.encrypt", false)
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.redis_prefix", "chordbook:")
	v.SetDefault("encryption.type", "age")
	v.SetDefault("encryption.public_key_path", "")
	v.SetDefault("encryption.private_key_path", "")
	v.SetDefault("connectivity.poll_interval", "30s")
	v.SetDefault("connectivity.probe_attempts", 2)
	v.SetDefault("connectivity.probe_delay", "1s")
	v.SetDefault("connectivity.force_offline", false)
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// ErrExists is returned by Init when the config file is already there.
var ErrExists = errors.New("config file already exists")

// Init writes a new config file at path. It refuses to overwrite.
func Init(path string, cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w at %s", ErrExists, path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
