package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/srg/granble/internal/board"
	"github.com/srg/granble/internal/session"
	"github.com/srg/granble/pkg/config"
	"golang.org/x/term"
)

// eventPrinter renders the board session. Throw and PlayerChange are called
// from the dispatcher goroutine.
type eventPrinter interface {
	Found(p *session.Peripheral, button int)
	Throw(d board.Dart)
	PlayerChange()
	Disconnected()
}

// now is replaced in tests.
var now = time.Now

func newPrinter(w io.Writer, format string) eventPrinter {
	if format == config.FormatJSON {
		return &jsonPrinter{enc: json.NewEncoder(w)}
	}
	return newTextPrinter(w, isTerminal(w))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type textPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	button int

	single, double, triple, bull, miss, player *color.Color
}

func newTextPrinter(w io.Writer, colors bool) *textPrinter {
	p := &textPrinter{
		w:      w,
		single: color.New(color.FgWhite),
		double: color.New(color.FgGreen, color.Bold),
		triple: color.New(color.FgRed, color.Bold),
		bull:   color.New(color.FgYellow, color.Bold),
		miss:   color.New(color.Faint),
		player: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.single, p.double, p.triple, p.bull, p.miss, p.player} {
		if colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *textPrinter) Found(peripheral *session.Peripheral, button int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.button = button
	fmt.Fprintf(p.w, "Found %s (RSSI %d dBm), connecting...\n", peripheral, peripheral.RSSI)
}

func (p *textPrinter) Throw(d board.Dart) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.single
	switch {
	case d.Multiplier == 0:
		c = p.miss
	case d.IsBull():
		c = p.bull
	case d.Multiplier == 3:
		c = p.triple
	case d.Multiplier == 2:
		c = p.double
	}
	fmt.Fprintf(p.w, "%s %3d\n", c.Sprintf("%-8s", d.String()), d.Score())
}

func (p *textPrinter) PlayerChange() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.player.Sprintf("-- next player (button %d) --", p.button))
}

func (p *textPrinter) Disconnected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "Disconnected")
}

// jsonRecord is one line of --format json output.
type jsonRecord struct {
	Event      string `json:"event"`
	Time       string `json:"time"`
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	RSSI       int    `json:"rssi,omitempty"`
	Dart       string `json:"dart,omitempty"`
	Segment    *int   `json:"segment,omitempty"`
	Multiplier *int   `json:"multiplier,omitempty"`
	Score      *int   `json:"score,omitempty"`
	Button     int    `json:"button,omitempty"`
}

type jsonPrinter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	button int
}

func (p *jsonPrinter) write(rec jsonRecord) {
	rec.Time = now().UTC().Format(time.RFC3339Nano)
	// encoding errors only come from the writer; nothing to recover
	_ = p.enc.Encode(rec)
}

func (p *jsonPrinter) Found(peripheral *session.Peripheral, button int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.button = button
	p.write(jsonRecord{Event: "found", ID: peripheral.ID, Name: peripheral.Name, RSSI: peripheral.RSSI, Button: button})
}

func (p *jsonPrinter) Throw(d board.Dart) {
	p.mu.Lock()
	defer p.mu.Unlock()
	score := d.Score()
	p.write(jsonRecord{Event: "throw", Dart: d.String(), Segment: &d.Segment, Multiplier: &d.Multiplier, Score: &score})
}

func (p *jsonPrinter) PlayerChange() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(jsonRecord{Event: "player_change", Button: p.button})
}

func (p *jsonPrinter) Disconnected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(jsonRecord{Event: "disconnected"})
}
