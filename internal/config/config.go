package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Tracking   TrackingConfig   `mapstructure:"tracking"`
	Location   LocationConfig   `mapstructure:"location"`
	Permission PermissionConfig `mapstructure:"permission"`
	Map        MapConfig        `mapstructure:"map"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig defines server ports and addresses
type ServerConfig struct {
	APIPort     int    `mapstructure:"api_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	BindAddress string `mapstructure:"bind_address"`
}

// TrackingConfig defines session timing
type TrackingConfig struct {
	CountdownTicks    int    `mapstructure:"countdown_ticks"`
	CountdownInterval string `mapstructure:"countdown_interval"`
	ResultsDelay      string `mapstructure:"results_delay"`
	EventBuffer       int    `mapstructure:"event_buffer"`
}

// LocationConfig selects and tunes the location provider
type LocationConfig struct {
	Source          string `mapstructure:"source"` // "replay", "redis" or "push"
	Interval        string `mapstructure:"interval"`
	FastestInterval string `mapstructure:"fastest_interval"`
	ReplayFile      string `mapstructure:"replay_file"`
	Device          string `mapstructure:"device"`  // redis channel suffix
	Channel         string `mapstructure:"channel"` // overrides the channel derived from device
	PushBacklog     int    `mapstructure:"push_backlog"`
}

// PermissionConfig defines how background location permission is obtained
type PermissionConfig struct {
	Mode       string `mapstructure:"mode"` // "granted", "denied", "permanently_denied" or "prompt"
	MaxDenials int    `mapstructure:"max_denials"`
}

// MapConfig defines camera behaviour of the map view
type MapConfig struct {
	FollowZoom    float32 `mapstructure:"follow_zoom"`
	BoundsPadding int     `mapstructure:"bounds_padding"`
}

// StorageConfig defines result history storage settings
type StorageConfig struct {
	Type          string      `mapstructure:"type"` // "memory", "bolt" or "redis"
	Path          string      `mapstructure:"path"`
	CacheSize     int         `mapstructure:"cache_size"`
	RetentionDays int         `mapstructure:"retention_days"`
	PruneTime     string      `mapstructure:"prune_time"`
	Redis         RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines the redis connection used by the redis storage backend
// and the redis location provider
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables. An empty
// path loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := New()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	return Decode(v)
}

// New returns a viper instance with defaults and environment overrides
// configured, but no file read yet.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RUNTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Defaults returns a viper instance holding only the built-in defaults. Its
// keys are the complete set of recognised configuration keys.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.api_port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.bind_address", "0.0.0.0")

	// Tracking defaults
	v.SetDefault("tracking.countdown_ticks", 4)
	v.SetDefault("tracking.countdown_interval", "1s")
	v.SetDefault("tracking.results_delay", "2500ms")
	v.SetDefault("tracking.event_buffer", 64)

	// Location defaults
	v.SetDefault("location.source", "push")
	v.SetDefault("location.interval", "4s")
	v.SetDefault("location.fastest_interval", "2s")
	v.SetDefault("location.replay_file", "")
	v.SetDefault("location.device", "default")
	v.SetDefault("location.channel", "")
	v.SetDefault("location.push_backlog", 64)

	// Permission defaults
	v.SetDefault("permission.mode", "granted")
	v.SetDefault("permission.max_denials", 2)

	// Map defaults
	v.SetDefault("map.follow_zoom", 18)
	v.SetDefault("map.bounds_padding", 100)

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.path", "/var/lib/runtracker/runtracker.bolt")
	v.SetDefault("storage.cache_size", 500)
	v.SetDefault("storage.retention_days", 90)
	v.SetDefault("storage.prune_time", "03:00")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.APIPort <= 0 || cfg.Server.APIPort > 65535 {
		return fmt.Errorf("invalid API port: %d", cfg.Server.APIPort)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Server.MetricsPort)
	}

	if cfg.Tracking.CountdownTicks <= 0 {
		return fmt.Errorf("countdown_ticks must be positive: %d", cfg.Tracking.CountdownTicks)
	}
	if cfg.Tracking.EventBuffer <= 0 {
		return fmt.Errorf("event_buffer must be positive: %d", cfg.Tracking.EventBuffer)
	}
	for name, value := range map[string]string{
		"tracking.countdown_interval": cfg.Tracking.CountdownInterval,
		"tracking.results_delay":      cfg.Tracking.ResultsDelay,
		"location.interval":           cfg.Location.Interval,
		"location.fastest_interval":   cfg.Location.FastestInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}

	switch cfg.Location.Source {
	case "push", "redis":
	case "replay":
		if cfg.Location.ReplayFile == "" {
			return fmt.Errorf("location.replay_file is required for the replay source")
		}
	default:
		return fmt.Errorf("unknown location source: %q", cfg.Location.Source)
	}
	if cfg.Location.Source == "redis" && cfg.Location.Device == "" && cfg.Location.Channel == "" {
		return fmt.Errorf("location.device or location.channel is required for the redis source")
	}

	switch cfg.Permission.Mode {
	case "granted", "denied", "permanently_denied", "prompt":
	default:
		return fmt.Errorf("unknown permission mode: %q", cfg.Permission.Mode)
	}
	if cfg.Permission.MaxDenials < 1 {
		return fmt.Errorf("permission.max_denials must be at least 1")
	}

	if cfg.Map.FollowZoom <= 0 {
		return fmt.Errorf("invalid map follow_zoom: %v", cfg.Map.FollowZoom)
	}
	if cfg.Map.BoundsPadding < 0 {
		return fmt.Errorf("invalid map bounds_padding: %d", cfg.Map.BoundsPadding)
	}

	if _, _, err := ParseClock(cfg.Storage.PruneTime); err != nil {
		return fmt.Errorf("invalid storage.prune_time: %w", err)
	}

	switch cfg.Storage.Type {
	case "":
		cfg.Storage.Type = "memory"
	case "memory", "redis":
	case "bolt":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		// Ensure storage directory exists
		storageDir := filepath.Dir(cfg.Storage.Path)
		if err := os.MkdirAll(storageDir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage type: %q", cfg.Storage.Type)
	}

	return nil
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(value string) (int, int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day out of range: %q", value)
	}
	return hour, minute, nil
}

// Duration parses a duration that validate has already checked.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
