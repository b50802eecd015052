package main

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/granble/internal/device"
	goble "github.com/srg/granble/internal/device/go-ble"
	tinyble "github.com/srg/granble/internal/device/tinygo-ble"
	"github.com/srg/granble/pkg/config"
)

// adapterFactory opens the BLE backend named by the configuration; replaced in tests.
var adapterFactory = func(cfg *config.Config, logger *logrus.Logger) (device.Adapter, error) {
	switch cfg.Backend {
	case config.BackendTinyGo:
		return tinyble.NewAdapter(logger), nil
	default:
		return goble.NewAdapter(logger), nil
	}
}

func closeAdapter(adapter device.Adapter, logger *logrus.Logger) {
	c, ok := adapter.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.WithField("error", err).Warn("Failed to release BLE adapter")
	}
}

// loadConfig reads --config and applies the flags the user set on top.
// Validation is left to the caller, after command arguments are merged in.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.OutputFormat, _ = flags.GetString("format")
	}
	if flags.Changed("backend") {
		cfg.Backend, _ = flags.GetString("backend")
	}
	if f := flags.Lookup("button"); f != nil && f.Changed {
		cfg.ButtonNumber, _ = flags.GetInt("button")
	}
	if f := flags.Lookup("button-char"); f != nil && f.Changed {
		cfg.ButtonCharacteristic, _ = flags.GetString("button-char")
	}
	if f := flags.Lookup("scan-timeout"); f != nil && f.Changed {
		cfg.ScanTimeout, _ = flags.GetDuration("scan-timeout")
	}
	if f := flags.Lookup("shutdown-timeout"); f != nil && f.Changed {
		cfg.ShutdownTimeout, _ = flags.GetDuration("shutdown-timeout")
	}
	if f := flags.Lookup("strict"); f != nil && f.Changed {
		cfg.StrictErrors, _ = flags.GetBool("strict")
	}
	return cfg, nil
}
