package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/granble/internal/device"
	"gopkg.in/yaml.v3"
)

// Output formats for board events.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// BLE backends.
const (
	BackendGoBLE  = "go-ble"
	BackendTinyGo = "tinygo"
)

// Config holds application configuration
type Config struct {
	LogLevel string `yaml:"log_level" default:"info"`
	// Backend selects the BLE stack: go-ble (HCI/CoreBluetooth) or tinygo (BlueZ D-Bus/CoreBluetooth).
	Backend string `yaml:"backend" default:"go-ble"`

	// TargetUUID identifies the board: a MAC address on Linux, a CoreBluetooth UUID on macOS.
	TargetUUID string `yaml:"target_uuid"`
	// ButtonNumber is the player-change button number printed on the board.
	ButtonNumber int `yaml:"button_number" default:"1"`
	// ButtonCharacteristic receives the disable byte on disconnect; empty skips it.
	ButtonCharacteristic string `yaml:"button_characteristic"`

	// ScanTimeout bounds discovery; zero scans until interrupted.
	ScanTimeout     time.Duration `yaml:"scan_timeout" default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"3s"`

	StrictErrors       bool   `yaml:"strict_errors" default:"false"`
	NotificationBuffer int    `yaml:"notification_buffer" default:"128"`
	OutputFormat       string `yaml:"output_format" default:"text"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.Backend {
	case BackendGoBLE, BackendTinyGo:
	default:
		errs = append(errs, fmt.Errorf("backend: unsupported %q (go-ble, tinygo)", c.Backend))
	}
	if c.TargetUUID != "" && !ValidTarget(c.TargetUUID) {
		errs = append(errs, fmt.Errorf("target_uuid: %q is neither a MAC address nor a 128-bit UUID", c.TargetUUID))
	}
	if c.ButtonNumber < 0 {
		errs = append(errs, fmt.Errorf("button_number: must not be negative, got %d", c.ButtonNumber))
	}
	if c.ButtonCharacteristic != "" {
		if _, err := device.ValidateUUID(c.ButtonCharacteristic); err != nil {
			errs = append(errs, fmt.Errorf("button_characteristic: %w", err))
		}
	}
	if c.ScanTimeout < 0 {
		errs = append(errs, fmt.Errorf("scan_timeout: must not be negative, got %s", c.ScanTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout: must be positive, got %s", c.ShutdownTimeout))
	}
	if c.NotificationBuffer <= 0 {
		errs = append(errs, fmt.Errorf("notification_buffer: must be positive, got %d", c.NotificationBuffer))
	}
	switch c.OutputFormat {
	case FormatText, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("output_format: unsupported %q (text, json)", c.OutputFormat))
	}

	return errors.Join(errs...)
}

// ValidTarget reports whether id looks like a peripheral identifier:
// a 48-bit MAC address or a 128-bit UUID.
func ValidTarget(id string) bool {
	n := device.NormalizeID(id)
	switch len(n) {
	case 12:
		return strings.Trim(n, "0123456789abcdef") == ""
	case 32:
		_, err := uuid.Parse(n)
		return err == nil
	default:
		return false
	}
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := c.Level()
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
