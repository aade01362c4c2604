// Package config loads the shared settings of the ucxterm and ucxbridge
// binaries from an optional config file and UCX_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SerialConfig selects the local serial port.
type SerialConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// ClientConfig carries the engine settings.
type ClientConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RxBufferSize  int           `mapstructure:"rx_buffer_size"`
	URCBufferSize int           `mapstructure:"urc_buffer_size"`
}

// BridgeConfig carries the ucxbridge listener settings.
type BridgeConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoggingConfig selects level, format and an optional rotated log file.
// An empty File logs to stderr.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config is the root of the configuration tree.
type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Client  ClientConfig  `mapstructure:"client"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load reads the configuration. Defaults apply first, then the file at path
// if one is given, then UCX_* environment variables (UCX_SERIAL_PORT
// overrides serial.port, and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("UCX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "/dev/ttyUSB0")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("client.timeout", "5s")
	v.SetDefault("client.poll_interval", "10ms")
	v.SetDefault("client.rx_buffer_size", 4096)
	v.SetDefault("client.urc_buffer_size", 2048)
	v.SetDefault("bridge.listen", "0.0.0.0:8765")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 20)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 28)
}

func (c *Config) validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Client.Timeout < 0 || c.Client.PollInterval < 0 {
		return fmt.Errorf("client timeouts must not be negative")
	}
	if c.Client.RxBufferSize < 0 || c.Client.URCBufferSize < 0 {
		return fmt.Errorf("client buffer sizes must not be negative")
	}
	if c.Bridge.Listen == "" {
		return fmt.Errorf("bridge.listen must not be empty")
	}
	return nil
}
