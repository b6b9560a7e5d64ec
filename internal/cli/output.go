package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Printer serializes output written from the progress goroutine and the command
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter wraps out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Printf writes one formatted line
func (p *Printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// Progress is a delay progress callback
func (p *Printer) Progress(elapsed, remaining time.Duration, percent float64) {
	p.Printf("  %s %5.1f%%  elapsed %s  remaining %s\n",
		cyan("…"), percent, FormatDuration(elapsed), FormatDuration(remaining))
}

// Resolved reports a delay that ran to completion
func (p *Printer) Resolved(took time.Duration) {
	p.Printf("%s resolved after %s\n", green("✓"), FormatDuration(took))
}

// Cancelled reports a delay that was cancelled
func (p *Printer) Cancelled(err error) {
	p.Printf("%s %v\n", yellow("✗"), err)
}

// Failed reports any other error
func (p *Printer) Failed(err error) {
	p.Printf("%s %v\n", red("✗"), err)
}

// FormatDuration rounds d for display
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Millisecond).String()
	default:
		return d.String()
	}
}
