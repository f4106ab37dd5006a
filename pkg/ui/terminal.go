// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"creatorjoy/pkg/models"

	"golang.org/x/term"
)

// Banner is printed by the serve command.
const Banner = `
  ┌─────────────────────────────────────────┐
  │  creatorjoy :: reels & channel metrics  │
  └─────────────────────────────────────────┘
`

// Printer writes colored status lines. Colors are dropped when disabled or
// when the output is not a terminal.
type Printer struct {
	out   io.Writer
	color bool
	quiet bool
}

// NewPrinter creates a printer on out.
func NewPrinter(out io.Writer, noColor, quiet bool) *Printer {
	color := !noColor
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		color = false
	}
	return &Printer{out: out, color: color, quiet: quiet}
}

// Stdout returns a printer on os.Stdout.
func Stdout(noColor, quiet bool) *Printer {
	return NewPrinter(os.Stdout, noColor, quiet)
}

func (p *Printer) paint(code, text string) string {
	if !p.color {
		return text
	}
	return "\033[" + code + "m" + text + "\033[0m"
}

func (p *Printer) Cyan(s string) string    { return p.paint("36", s) }
func (p *Printer) Yellow(s string) string  { return p.paint("33", s) }
func (p *Printer) Red(s string) string     { return p.paint("31", s) }
func (p *Printer) Green(s string) string   { return p.paint("32", s) }
func (p *Printer) Magenta(s string) string { return p.paint("35", s) }
func (p *Printer) Dim(s string) string     { return p.paint("2", s) }

// Banner prints the banner unless quiet.
func (p *Printer) Banner() {
	if p.quiet {
		return
	}
	fmt.Fprint(p.out, p.Cyan(Banner))
}

// Error prints an error line. Errors are printed even when quiet.
func (p *Printer) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg += ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(p.out, p.Red(msg))
}

// Success prints a success line.
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.Green(msg))
}

// Info prints a label/value pair.
func (p *Printer) Info(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", p.Cyan(label), p.Yellow(value))
}

// Warning prints a warning line.
func (p *Printer) Warning(msg string, args ...interface{}) {
	if p.quiet {
		return
	}
	if len(args) > 0 {
		msg += ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(p.out, p.Yellow(msg))
}

// Highlight prints an emphasized line.
func (p *Printer) Highlight(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.Magenta(msg))
}

// Stats prints a statistics block.
func (p *Printer) Stats(st *models.Stats) {
	if p.quiet || st == nil {
		return
	}
	rows := [][2]string{
		{"Total views", fmt.Sprint(st.TotalViews)},
		{"Total likes", fmt.Sprint(st.TotalLikes)},
		{"Total comments", fmt.Sprint(st.TotalComments)},
		{"Average views", fmt.Sprint(st.AvgViews)},
		{"Median views", fmt.Sprint(st.MedianViews)},
		{"Min / max views", fmt.Sprintf("%d / %d", st.MinViews, st.MaxViews)},
		{"Outliers", fmt.Sprintf("%d (> %d views)", st.OutliersCount, st.OutlierThreshold)},
		{"Consistency", fmt.Sprintf("%.2f", st.ConsistencyScore)},
	}
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	for _, r := range rows {
		fmt.Fprintf(p.out, "  %s  %s\n", p.Cyan(r[0]+strings.Repeat(" ", width-len(r[0]))), r[1])
	}
}
