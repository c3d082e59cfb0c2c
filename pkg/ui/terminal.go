package ui

import (
	"fmt"
	"io"
)

// Logo is printed at the top of interactive commands
const Logo = `
    ╔════════════════════════════════════════════════════╗
    ║  ██████╗  █████╗ ███╗   ██╗██╗  ██╗                ║
    ║  ██╔══██╗██╔══██╗████╗  ██║██║ ██╔╝                ║
    ║  ██║  ██║███████║██╔██╗ ██║█████╔╝   R A N K       ║
    ║  ██║  ██║██╔══██║██║╚██╗██║██╔═██╗                 ║
    ║  ██████╔╝██║  ██║██║ ╚████║██║  ██╗                ║
    ║  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝                ║
    ║          HARVESTING THE DANKEST OF THE DAY         ║
    ╚════════════════════════════════════════════════════╝
`

// Printer writes styled status lines
type Printer struct {
	w      io.Writer
	styles Styles
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer, noColor bool) *Printer {
	return &Printer{w: w, styles: NewStyles(w, noColor)}
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer { return p.w }

// Styles returns the printer's styles
func (p *Printer) Styles() Styles { return p.styles }

// Logo prints the banner
func (p *Printer) Logo() {
	fmt.Fprint(p.w, p.styles.Logo.Render(Logo)+"\n")
}

// Error prints an error line, with err appended when given
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(p.w, p.styles.Error.Render(msg))
}

// Success prints a success line
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.w, p.styles.Success.Render(msg))
}

// Warning prints a warning line
func (p *Printer) Warning(msg string) {
	fmt.Fprintln(p.w, p.styles.Warning.Render(msg))
}

// Info prints a label/value pair
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.w, "%s: %s\n", p.styles.Label.Render(label), p.styles.Value.Render(value))
}

// Highlight prints a highlighted line
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.w, p.styles.Highlight.Render(msg))
}
