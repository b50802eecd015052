package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/granble/internal/board"
	"github.com/srg/granble/pkg/config"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [token...]",
		Short: "Translate raw board tokens without a board",
		Long: `Translate raw notification tokens, as sent by the board, into darts.
With --table the whole token table is printed in board order.`,
		Example: `  granble decode 4.0@ BTN@ OUT@
  granble decode --table --format json`,
		RunE: runDecode,
	}
	cmd.Flags().Bool("table", false, "Print the whole token table")
	return cmd
}

// decodeRecord is one translated token.
type decodeRecord struct {
	Token      string `json:"token"`
	Kind       string `json:"kind"`
	Value      string `json:"value"`
	Dart       string `json:"dart,omitempty"`
	Segment    *int   `json:"segment,omitempty"`
	Multiplier *int   `json:"multiplier,omitempty"`
	Score      *int   `json:"score,omitempty"`
}

func decodeToken(token string) decodeRecord {
	v := board.Translate(token)
	rec := decodeRecord{Token: token, Kind: v.Kind.String(), Value: v.String()}
	if d, ok := v.Dart(); ok {
		score := d.Score()
		rec.Dart = d.String()
		rec.Segment = &d.Segment
		rec.Multiplier = &d.Multiplier
		rec.Score = &score
	}
	return rec
}

func runDecode(cmd *cobra.Command, args []string) error {
	table, _ := cmd.Flags().GetBool("table")
	if table && len(args) > 0 {
		return fmt.Errorf("--table does not take tokens")
	}
	if !table && len(args) == 0 {
		return fmt.Errorf("at least one token is required (or --table)")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	tokens := args
	if table {
		tokens = board.Tokens()
	}
	records := make([]decodeRecord, 0, len(tokens))
	for _, tok := range tokens {
		records = append(records, decodeToken(tok))
	}
	return printDecoded(cmd.OutOrStdout(), cfg.OutputFormat, records)
}

func printDecoded(w io.Writer, format string, records []decodeRecord) error {
	if format == config.FormatJSON {
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tVALUE\tDART\tSCORE")
	for _, r := range records {
		dart, score := "-", "-"
		switch {
		case r.Dart != "":
			dart, score = r.Dart, fmt.Sprint(*r.Score)
		case r.Kind == board.KindButtonPress.String():
			dart = "next player"
		case r.Kind == board.KindUnknown.String():
			dart = "not a board token"
		}
		fmt.Fprintf(tw, "%q\t%s\t%s\t%s\n", r.Token, r.Value, dart, score)
	}
	return tw.Flush()
}
