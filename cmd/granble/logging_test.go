package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/granble/internal/testutils/mocks"
	"github.com/srg/granble/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parsedRoot returns the command tree with args parsed, without running anything.
func parsedRoot(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := newRootCmd()
	cmd, rest, err := root.Find(args)
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags(rest))
	return cmd
}

func TestConfigureLogger(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "granble.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: warn\n"), 0o600))

	tests := []struct {
		name string
		args []string
		want logrus.Level
	}{
		{"silent by default", []string{"decode"}, logrus.PanicLevel},
		{"verbose", []string{"decode", "--verbose"}, logrus.DebugLevel},
		{"explicit level", []string{"decode", "--log-level", "error"}, logrus.ErrorLevel},
		{"log level wins over verbose", []string{"decode", "--verbose", "--log-level", "info"}, logrus.InfoLevel},
		{"config file level", []string{"decode", "--config", cfgPath}, logrus.WarnLevel},
		{"verbose wins over config", []string{"decode", "--config", cfgPath, "--verbose"}, logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := parsedRoot(t, tt.args...)
			cfg, err := loadConfig(cmd)
			require.NoError(t, err)

			var stderr bytes.Buffer
			cmd.SetErr(&stderr)

			logger, err := configureLogger(cmd, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, logger.GetLevel())

			logger.Error("level check")
			if tt.want >= logrus.ErrorLevel {
				assert.Contains(t, stderr.String(), "level check", "logs MUST go to the command's stderr")
			}
		})
	}
}

func TestConfigureLoggerRejectsUnknownLevel(t *testing.T) {
	cmd := parsedRoot(t, "decode", "--log-level", "chatty")

	_, err := configureLogger(cmd, config.DefaultConfig())
	assert.ErrorContains(t, err, "invalid log level: chatty")
}

func TestLoadConfigAppliesChangedFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "granble.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
button_number: 5
scan_timeout: 10s
output_format: json
`), 0o600))

	cmd := parsedRoot(t, "watch", "--config", cfgPath,
		"--button", "2", "--button-char", "442f1572-8a00-9a28-cbe1-e1d4212d53eb",
		"--shutdown-timeout", "1s", "--strict", "--backend", "tinygo")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.ButtonNumber, "a flag MUST override the file")
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout, "an unset flag MUST NOT override the file")
	assert.Equal(t, config.FormatJSON, cfg.OutputFormat)
	assert.Equal(t, time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.StrictErrors)
	assert.Equal(t, config.BackendTinyGo, cfg.Backend)
	assert.Equal(t, "442f1572-8a00-9a28-cbe1-e1d4212d53eb", cfg.ButtonCharacteristic)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cmd := parsedRoot(t, "decode", "--config", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := loadConfig(cmd)
	assert.ErrorContains(t, err, "failed to read config")
}

type closingAdapter struct {
	*mocks.MockAdapter
	closed bool
}

func (a *closingAdapter) Close() error {
	a.closed = true
	return nil
}

func TestCloseAdapter(t *testing.T) {
	a := &closingAdapter{MockAdapter: mocks.NewMockAdapter(t)}
	closeAdapter(a, logrus.New())
	assert.True(t, a.closed)

	// adapters without Close are left alone
	closeAdapter(mocks.NewMockAdapter(t), logrus.New())
}
