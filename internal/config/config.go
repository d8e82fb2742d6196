package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	AuthProviderJWT      = "jwt"
	AuthProviderKeycloak = "keycloak"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Device     DeviceConfig     `mapstructure:"device"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	FileStore  FileStoreConfig  `mapstructure:"filestore"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Timezone        string        `mapstructure:"timezone"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// Location resolves the display time zone used in alert descriptions.
func (s ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type DatabaseConfig struct {
	Driver      string         `mapstructure:"driver"`
	AppDB       PostgresConfig `mapstructure:"postgres_app"`
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
}

// UseTimescale reports whether sensor data goes to a dedicated TimescaleDB.
func (d DatabaseConfig) UseTimescale() bool {
	return d.Driver == DriverPostgres && d.TimescaleDB.Host != ""
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type AuthConfig struct {
	Provider     string         `mapstructure:"provider"`
	JWTSecret    string         `mapstructure:"jwt_secret"`
	SessionTTL   time.Duration  `mapstructure:"session_ttl"`
	CookieSecure bool           `mapstructure:"cookie_secure"`
	Keycloak     KeycloakConfig `mapstructure:"keycloak"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AdminRole    string `mapstructure:"admin_role"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type CacheConfig struct {
	SettingsTTL time.Duration `mapstructure:"settings_ttl"`
}

// DeviceConfig points at the field controller's HTTP surface.
type DeviceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	APIKey  string        `mapstructure:"api_key"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      byte   `mapstructure:"qos"`
}

type FileStoreConfig struct {
	BasePath         string   `mapstructure:"base_path"`
	MaxFileSize      int64    `mapstructure:"max_file_size"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
}

// RetentionConfig controls background pruning. A zero age disables pruning
// for that kind of record.
type RetentionConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	SensorData   time.Duration `mapstructure:"sensor_data"`
	CameraImages time.Duration `mapstructure:"camera_images"`
}

type MonitoringConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// Load initializes configuration from environment variables and config file.
// Extra search paths are consulted before ./config.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROBOWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		if p != "" {
			v.AddConfigPath(p)
		}
	}
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.timezone", "Local")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	for _, db := range []string{"postgres_app", "timescaledb"} {
		v.SetDefault("database."+db+".host", "")
		v.SetDefault("database."+db+".port", 5432)
		v.SetDefault("database."+db+".user", "robowatch")
		v.SetDefault("database."+db+".password", "")
		v.SetDefault("database."+db+".dbname", "robowatch")
		v.SetDefault("database."+db+".sslmode", "disable")
	}

	// Auth defaults
	v.SetDefault("auth.provider", AuthProviderJWT)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", "24h")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.keycloak.url", "")
	v.SetDefault("auth.keycloak.realm", "")
	v.SetDefault("auth.keycloak.client_id", "")
	v.SetDefault("auth.keycloak.client_secret", "")
	v.SetDefault("auth.keycloak.admin_role", "ADMIN")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "robowatch:alerts")
	v.SetDefault("cache.settings_ttl", "5m")

	// Device gateway defaults
	v.SetDefault("device.base_url", "http://raspberry-pi-ip:5000")
	v.SetDefault("device.timeout", "10s")
	v.SetDefault("device.api_key", "")

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "robowatch/sensors/+")
	v.SetDefault("mqtt.client_id", "robowatch-hub")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 1)

	// FileStore defaults
	v.SetDefault("filestore.base_path", "./data/frames")
	v.SetDefault("filestore.max_file_size", 10*1024*1024) // 10MB
	v.SetDefault("filestore.allowed_mime_types", []string{"image/jpeg", "image/png"})

	// Retention defaults
	v.SetDefault("retention.interval", "1h")
	v.SetDefault("retention.sensor_data", "0s")
	v.SetDefault("retention.camera_images", "0s")

	// Monitoring defaults
	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.metrics_enabled", true)
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", config.Server.Port)
	}
	if _, err := time.LoadLocation(config.Server.Timezone); err != nil {
		return fmt.Errorf("invalid server timezone %q: %w", config.Server.Timezone, err)
	}

	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.AppDB.Host == "" {
			return fmt.Errorf("postgres app host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	switch config.Auth.Provider {
	case AuthProviderJWT:
		if len(config.Auth.JWTSecret) < 16 {
			return fmt.Errorf("auth jwt_secret must be at least 16 characters")
		}
	case AuthProviderKeycloak:
		if config.Auth.Keycloak.URL == "" {
			return fmt.Errorf("keycloak URL is required")
		}
		if config.Auth.Keycloak.Realm == "" || config.Auth.Keycloak.ClientID == "" {
			return fmt.Errorf("keycloak realm and client_id are required")
		}
	default:
		return fmt.Errorf("unknown auth provider %q", config.Auth.Provider)
	}
	if config.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth session_ttl must be positive")
	}

	u, err := url.Parse(config.Device.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("device base_url %q is not an absolute URL", config.Device.BaseURL)
	}

	if config.MQTT.Enabled && config.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	if config.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}

	if config.Retention.Interval <= 0 {
		return fmt.Errorf("retention interval must be positive")
	}
	return nil
}
