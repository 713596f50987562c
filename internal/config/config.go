package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "COMPASS"
	configDir  = "compass"
	configName = "config"
	configType = "toml"
)

const (
	KeyAPIBaseURL                = "api.base_url"
	KeyAPITimeout                = "api.timeout"
	KeyRealtimeURL               = "realtime.url"
	KeyRealtimeReconnect         = "realtime.reconnect"
	KeyRealtimeReconnectDelay    = "realtime.reconnect_delay"
	KeyRealtimeReconnectDelayMax = "realtime.reconnect_delay_max"
	KeyRealtimeReconnectAttempts = "realtime.reconnect_attempts"
	KeyStorageBackend            = "storage.backend"
	KeyStoragePath               = "storage.path"
	KeyStorageRedisAddr          = "storage.redis_addr"
	KeyStorageRedisPrefix        = "storage.redis_prefix"
	KeyStoragePassPrefix         = "storage.pass_prefix"
	KeyAlertsTimeout             = "alerts.timeout"
	KeySessionVerifyPolicy       = "session.verify_policy"
	KeyAuthClientID              = "auth.client_id"
	KeyAuthAuthorizeURL          = "auth.authorize_url"
	KeyAuthListen                = "auth.listen"
	KeyAuthTimeout               = "auth.timeout"
	KeyLogLevel                  = "log.level"
	KeyLogFormat                 = "log.format"
)

const (
	StorageTOML  = "toml"
	StorageRedis = "redis"
	StoragePass  = "pass"
)

type Config struct {
	API      APIConfig
	Realtime RealtimeConfig
	Storage  StorageConfig
	Alerts   AlertsConfig
	Session  SessionConfig
	Auth     AuthConfig
	Log      LogConfig

	// File is the config file that was read, empty when none was found.
	File string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RealtimeConfig struct {
	URL               string
	Reconnect         bool
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	ReconnectAttempts int
}

type StorageConfig struct {
	Backend     string
	Path        string
	RedisAddr   string
	RedisPrefix string
	PassPrefix  string
}

type AlertsConfig struct {
	Timeout time.Duration
}

type SessionConfig struct {
	VerifyPolicy domain.VerifyPolicy
}

type AuthConfig struct {
	ClientID     string
	AuthorizeURL string
	Listen       string
	Timeout      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// SetDefaults registers every known key so environment overrides apply even
// when no config file exists.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIBaseURL, "http://localhost:3000")
	v.SetDefault(KeyAPITimeout, 30*time.Second)
	v.SetDefault(KeyRealtimeURL, "")
	v.SetDefault(KeyRealtimeReconnect, true)
	v.SetDefault(KeyRealtimeReconnectDelay, time.Second)
	v.SetDefault(KeyRealtimeReconnectDelayMax, 5*time.Second)
	v.SetDefault(KeyRealtimeReconnectAttempts, 0)
	v.SetDefault(KeyStorageBackend, StorageTOML)
	v.SetDefault(KeyStoragePath, "")
	v.SetDefault(KeyStorageRedisAddr, "127.0.0.1:6379")
	v.SetDefault(KeyStorageRedisPrefix, "compass:")
	v.SetDefault(KeyStoragePassPrefix, "compass")
	v.SetDefault(KeyAlertsTimeout, 2500*time.Millisecond)
	v.SetDefault(KeySessionVerifyPolicy, string(domain.VerifyPolicyAuthOnly))
	v.SetDefault(KeyAuthClientID, "")
	v.SetDefault(KeyAuthAuthorizeURL, "https://discord.com/oauth2/authorize")
	v.SetDefault(KeyAuthListen, "127.0.0.1:5173")
	v.SetDefault(KeyAuthTimeout, 5*time.Minute)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
}

// DefaultDir is the compass directory under the user's config home
// ($XDG_CONFIG_HOME or ~/.config on Linux).
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, configDir), nil
}

// Load reads config.toml (or the explicit file), applies COMPASS_* overrides
// and validates the result. A missing default config file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIBaseURL)), "/"),
			Timeout: v.GetDuration(KeyAPITimeout),
		},
		Realtime: RealtimeConfig{
			URL:               strings.TrimSpace(v.GetString(KeyRealtimeURL)),
			Reconnect:         v.GetBool(KeyRealtimeReconnect),
			ReconnectDelay:    v.GetDuration(KeyRealtimeReconnectDelay),
			ReconnectDelayMax: v.GetDuration(KeyRealtimeReconnectDelayMax),
			ReconnectAttempts: v.GetInt(KeyRealtimeReconnectAttempts),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(strings.TrimSpace(v.GetString(KeyStorageBackend))),
			Path:        v.GetString(KeyStoragePath),
			RedisAddr:   v.GetString(KeyStorageRedisAddr),
			RedisPrefix: v.GetString(KeyStorageRedisPrefix),
			PassPrefix:  v.GetString(KeyStoragePassPrefix),
		},
		Alerts: AlertsConfig{Timeout: v.GetDuration(KeyAlertsTimeout)},
		Session: SessionConfig{
			VerifyPolicy: domain.VerifyPolicy(strings.ToLower(strings.TrimSpace(v.GetString(KeySessionVerifyPolicy)))),
		},
		Auth: AuthConfig{
			ClientID:     strings.TrimSpace(v.GetString(KeyAuthClientID)),
			AuthorizeURL: v.GetString(KeyAuthAuthorizeURL),
			Listen:       v.GetString(KeyAuthListen),
			Timeout:      v.GetDuration(KeyAuthTimeout),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		File: v.ConfigFileUsed(),
	}

	if cfg.Realtime.URL == "" {
		cfg.Realtime.URL = cfg.API.BaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if err := validateURL(KeyAPIBaseURL, c.API.BaseURL, "http", "https"); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL(KeyRealtimeURL, c.Realtime.URL, "http", "https", "ws", "wss"); err != nil {
		errs = append(errs, err)
	}
	switch c.Storage.Backend {
	case StorageTOML, StorageRedis, StoragePass:
	default:
		errs = append(errs, fmt.Errorf("%s: unsupported backend %q (want toml, redis or pass)", KeyStorageBackend, c.Storage.Backend))
	}
	if !c.Session.VerifyPolicy.Valid() {
		errs = append(errs, fmt.Errorf("%s: unsupported policy %q (want auth-only or strict)", KeySessionVerifyPolicy, c.Session.VerifyPolicy))
	}
	if c.Alerts.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyAlertsTimeout))
	}
	if c.Realtime.ReconnectAttempts < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", KeyRealtimeReconnectAttempts))
	}

	return errors.Join(errs...)
}

func validateURL(key, raw string, schemes ...string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: host is required", key)
	}
	for _, scheme := range schemes {
		if parsed.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("%s: scheme must be one of %s", key, strings.Join(schemes, ", "))
}
