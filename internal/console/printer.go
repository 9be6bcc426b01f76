// Package console is the output layer for the runner: a lipgloss theme, a
// Printer with verbose gating, and width-aware text helpers. All user-facing
// pipeline output flows through here.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// bannerWidth matches the fixed ruler width used in the text reports, so
// the console summary and the persisted artifacts line up.
const bannerWidth = 60

// caserWrapper wraps a cases.Caser to allow pointer storage in sync.Pool.
type caserWrapper struct {
	caser cases.Caser
}

// titleCaserPool pools cases.Title instances; cases.Title is not safe for
// concurrent use and the progress animation prints from its own goroutine.
var titleCaserPool = sync.Pool{
	New: func() interface{} {
		return &caserWrapper{caser: cases.Title(language.English)}
	},
}

func titleCase(s string) string {
	wrapper, ok := titleCaserPool.Get().(*caserWrapper)
	if !ok || wrapper == nil {
		return cases.Title(language.English).String(s)
	}
	defer titleCaserPool.Put(wrapper)
	return wrapper.caser.String(s)
}

// Printer writes themed status lines to a single destination.
type Printer struct {
	out     io.Writer
	theme   Theme
	verbose bool
}

// NewPrinter returns a Printer writing to out with the given theme.
func NewPrinter(out io.Writer, theme Theme, verbose bool) *Printer {
	return &Printer{out: out, theme: theme, verbose: verbose}
}

// Theme returns the printer's theme.
func (p *Printer) Theme() Theme { return p.theme }

// Verbose reports whether verbose output is enabled.
func (p *Printer) Verbose() bool { return p.verbose }

// Out returns the underlying writer.
func (p *Printer) Out() io.Writer { return p.out }

// Title prints the run banner line.
func (p *Printer) Title(s string) {
	fmt.Fprintln(p.out, p.theme.Bold.Render(p.theme.Primary.Render(s)))
}

// Phase prints a title-cased phase header preceded by a blank line.
func (p *Printer) Phase(name string) {
	fmt.Fprintf(p.out, "\n%s\n", p.theme.Bold.Render(titleCase(name)))
}

// Successf prints a pass-styled line.
func (p *Printer) Successf(format string, a ...any) {
	fmt.Fprintln(p.out, p.theme.Success.Render(p.theme.Icons.Pass+" "+fmt.Sprintf(format, a...)))
}

// Failf prints a fail-styled line.
func (p *Printer) Failf(format string, a ...any) {
	fmt.Fprintln(p.out, p.theme.Error.Render(p.theme.Icons.Fail+" "+fmt.Sprintf(format, a...)))
}

// Warnf prints a warning-styled line.
func (p *Printer) Warnf(format string, a ...any) {
	fmt.Fprintln(p.out, p.theme.Warning.Render(p.theme.Icons.Warn+" "+fmt.Sprintf(format, a...)))
}

// Infof prints an unstyled informational line.
func (p *Printer) Infof(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Verbosef prints a muted line, only when verbose output is enabled.
func (p *Printer) Verbosef(format string, a ...any) {
	if !p.verbose {
		return
	}
	fmt.Fprintln(p.out, p.theme.Muted.Render(fmt.Sprintf(format, a...)))
}

// Detail prints captured multi-line output, indented and muted, so external
// tool output is visually subordinate to the runner's own lines.
func (p *Printer) Detail(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintln(p.out, p.theme.Muted.Render("  "+line))
	}
}

// Banner prints a fixed-width "=" ruler, the title, and a closing ruler.
func (p *Printer) Banner(title string) {
	rule := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(p.out, "\n%s\n%s\n%s\n", rule, p.theme.Bold.Render(title), rule)
}

// KV prints an aligned key/value line.
func (p *Printer) KV(key, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", key, value)
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.out)
}

// Table prints rows with columns padded to the widest cell, measured in
// terminal cells via go-runewidth so wide runes keep the grid straight.
func (p *Printer) Table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, 0)
	for _, row := range rows {
		for i, cell := range row {
			w := runewidth.StringWidth(cell)
			if i == len(widths) {
				widths = append(widths, w)
			} else if w > widths[i] {
				widths[i] = w
			}
		}
	}
	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)+2))
			}
		}
		fmt.Fprintln(p.out, strings.TrimRight(sb.String(), " "))
	}
}
