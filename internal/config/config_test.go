package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ROBOWATCH_DATABASE__DRIVER", "memory")
	t.Setenv("ROBOWATCH_AUTH__JWT_SECRET", "0123456789abcdef0123")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://raspberry-pi-ip:5000", cfg.Device.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Device.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, AuthProviderJWT, cfg.Auth.Provider)
	assert.Equal(t, "robowatch/sensors/+", cfg.MQTT.Topic)
	assert.Equal(t, []string{"image/jpeg", "image/png"}, cfg.FileStore.AllowedMimeTypes)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Database.UseTimescale())
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ROBOWATCH_DEVICE__BASE_URL", "http://10.0.0.7:5000")
	t.Setenv("ROBOWATCH_SERVER__PORT", "9000")
	t.Setenv("ROBOWATCH_RETENTION__SENSOR_DATA", "720h")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.7:5000", cfg.Device.BaseURL)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 720*time.Hour, cfg.Retention.SensorData)
}

func TestLoadConfigFile(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	content := []byte(`
server:
  timezone: UTC
mqtt:
  enabled: true
  broker: tcp://broker:1883
cache:
  settings_ttl: 30s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, 30*time.Second, cfg.Cache.SettingsTTL)
	assert.Equal(t, time.UTC, cfg.Server.Location())
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: 8080, Timezone: "UTC"},
			Database:  DatabaseConfig{Driver: DriverMemory},
			Auth:      AuthConfig{Provider: AuthProviderJWT, JWTSecret: "0123456789abcdef", SessionTTL: time.Hour},
			Device:    DeviceConfig{BaseURL: "http://raspberry-pi-ip:5000"},
			Retention: RetentionConfig{Interval: time.Hour},
		}
	}
	require.NoError(t, validateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad timezone", func(c *Config) { c.Server.Timezone = "Mars/Olympus" }},
		{"postgres without host", func(c *Config) { c.Database.Driver = DriverPostgres }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"keycloak without url", func(c *Config) { c.Auth.Provider = AuthProviderKeycloak }},
		{"relative device url", func(c *Config) { c.Device.BaseURL = "raspberry-pi-ip:5000/x" }},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true }},
		{"zero retention interval", func(c *Config) { c.Retention.Interval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, validateConfig(c))
		})
	}
}
