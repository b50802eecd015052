package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/granble/internal/device"
	"github.com/srg/granble/pkg/config"
)

// boardNamePrefix is how Granboards name themselves in advertisements.
const boardNamePrefix = "GRANBOARD"

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List nearby boards and their identifiers",
		Long: `Scan for Bluetooth Low Energy peripherals and list the Granboards in range with
the identifier to pass to 'granble watch'. Use --all to list every peripheral.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
	cmd.Flags().DurationP("duration", "d", 10*time.Second, "Scan duration")
	cmd.Flags().Bool("all", false, "List every peripheral, not only boards")
	return cmd
}

// scanEntry is one peripheral seen during a scan.
type scanEntry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	RSSI     int      `json:"rssi"`
	Seen     int      `json:"seen"`
	Board    bool     `json:"board"`
	Services []string `json:"services,omitempty"`
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	duration, _ := cmd.Flags().GetDuration("duration")
	if duration <= 0 {
		return fmt.Errorf("invalid duration %s: must be positive", duration)
	}
	all, _ := cmd.Flags().GetBool("all")

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}
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
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	entries, err := scanPeripherals(ctx, adapter, logger)
	if err != nil {
		return err
	}
	if !all {
		entries = boardsOnly(entries)
	}
	return printScan(cmd.OutOrStdout(), cfg.OutputFormat, entries)
}

// scanPeripherals collects advertisements until ctx ends, one entry per
// peripheral, keeping the latest name and signal strength.
func scanPeripherals(ctx context.Context, adapter device.Adapter, logger *logrus.Logger) ([]*scanEntry, error) {
	seen := hashmap.New[string, *scanEntry]()

	err := adapter.Scan(ctx, func(adv device.Advertisement) {
		key := device.NormalizeID(adv.Addr())
		if key == "" {
			return
		}
		entry, loaded := seen.GetOrInsert(key, &scanEntry{ID: adv.Addr()})
		if !loaded {
			logger.WithFields(logrus.Fields{"id": adv.Addr(), "name": adv.LocalName()}).Debug("New peripheral")
		}
		entry.Seen++
		entry.RSSI = adv.RSSI()
		if name := adv.LocalName(); name != "" {
			entry.Name = name
		}
		if svcs := adv.Services(); len(svcs) > 0 {
			entry.Services = svcs
		}
		entry.Board = isBoard(entry)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*scanEntry, 0, seen.Len())
	seen.Range(func(_ string, e *scanEntry) bool {
		entries = append(entries, e)
		return true
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RSSI != entries[j].RSSI {
			return entries[i].RSSI > entries[j].RSSI
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func isBoard(e *scanEntry) bool {
	if strings.HasPrefix(strings.ToUpper(e.Name), boardNamePrefix) {
		return true
	}
	for _, s := range e.Services {
		if device.SameUUID(s, device.ScoringServiceUUID) {
			return true
		}
	}
	return false
}

func boardsOnly(entries []*scanEntry) []*scanEntry {
	var boards []*scanEntry
	for _, e := range entries {
		if e.Board {
			boards = append(boards, e)
		}
	}
	return boards
}

func printScan(w io.Writer, format string, entries []*scanEntry) error {
	if format == config.FormatJSON {
		if entries == nil {
			entries = []*scanEntry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No boards found. Is the board switched on and in range?")
		return err
	}

	highlight := color.New(color.FgGreen, color.Bold)
	if !isTerminal(w) {
		highlight.DisableColor()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRSSI\tSEEN")
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = "-"
		}
		if e.Board {
			name = highlight.Sprint(name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", e.ID, name, e.RSSI, e.Seen)
	}
	return tw.Flush()
}
