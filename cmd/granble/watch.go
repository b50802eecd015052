package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/granble/internal/device"
	"github.com/srg/granble/internal/session"
	"github.com/srg/granble/internal/shutdown"
	"github.com/srg/granble/pkg/config"
)

// exitFunc terminates the process once shutdown completes; replaced in tests.
var exitFunc = os.Exit

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [board-id]",
		Short: "Connect to the board and print every dart",
		Long: `Scan for the board, connect to it, subscribe to throw notifications and print
each dart and player change as they happen.

The board id is the peripheral identifier shown by 'granble scan': a MAC address on
Linux, a CoreBluetooth UUID on macOS. It can also be set as target_uuid in the config.`,
		Example: `  granble watch aa:bb:cc:dd:ee:01
  granble watch --format json --button 2 6E400001-B5A3-F393-E0A9-E50E24DCCA9E`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().Int("button", 1, "Player-change button number printed on the board")
	cmd.Flags().String("button-char", "", "Button characteristic UUID to disable on disconnect")
	cmd.Flags().Duration("scan-timeout", 0, "Give up if the board is not found in time (0 waits forever)")
	cmd.Flags().Duration("shutdown-timeout", shutdown.DefaultDeadline, "Force exit if the board does not acknowledge disconnect in time")
	cmd.Flags().Bool("strict", false, "Abort on any BLE error instead of continuing best-effort")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.TargetUUID = args[0]
	}
	if cfg.TargetUUID == "" {
		return ErrTargetRequired
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	adapter, err := adapterFactory(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open BLE adapter: %w", err)
	}
	defer closeAdapter(adapter, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return watchBoard(ctx, cfg, adapter, newPrinter(cmd.OutOrStdout(), cfg.OutputFormat), logger)
}

// watchBoard runs one board session until ctx ends, the session fails, or an
// interrupt makes the shutdown coordinator exit the process.
func watchBoard(ctx context.Context, cfg *config.Config, adapter device.Adapter, printer eventPrinter, logger *logrus.Logger) error {
	machine := session.NewMachine(adapter, session.Options{
		ButtonCharacteristicUUID: cfg.ButtonCharacteristic,
		StrictErrors:             cfg.StrictErrors,
		NotificationBuffer:       cfg.NotificationBuffer,
	}, logger)

	coordinator := shutdown.New(machine, cfg.ShutdownTimeout, logger)
	coordinator.Exit = exitFunc
	stopWatch := coordinator.Watch(ctx)
	defer stopWatch()

	teardown := func() {
		tctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := machine.Disconnect(tctx, nil); err != nil {
			logger.WithField("error", err).Warn("Disconnect failed")
		}
	}

	found := make(chan *session.Peripheral, 1)
	if err := machine.Connect(cfg.TargetUUID, func(p *session.Peripheral) { found <- p }); err != nil {
		return err
	}
	if err := machine.StartScan(ctx); err != nil {
		return err
	}

	var scanTimeout <-chan time.Time
	if cfg.ScanTimeout > 0 {
		timer := time.NewTimer(cfg.ScanTimeout)
		defer timer.Stop()
		scanTimeout = timer.C
	}

	var p *session.Peripheral
	select {
	case p = <-found:
	case <-machine.Done():
		return machine.Failure()
	case <-scanTimeout:
		teardown()
		return fmt.Errorf("%w: %s not seen within %s", ErrBoardNotFound, cfg.TargetUUID, cfg.ScanTimeout)
	case <-ctx.Done():
		teardown()
		return ctx.Err()
	}

	printer.Found(p, cfg.ButtonNumber)
	if err := machine.Initialize(ctx, p, cfg.ButtonNumber, printer.Throw, printer.PlayerChange); err != nil {
		teardown()
		return fmt.Errorf("failed to connect to %s: %w", p, err)
	}

	select {
	case <-machine.Done():
		return machine.Failure()
	case <-ctx.Done():
		teardown()
		printer.Disconnected()
		return ctx.Err()
	}
}
