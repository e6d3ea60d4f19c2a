// Package output renders command results as styled text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how results are written.
type Mode string

// Output modes.
const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Styles holds the lipgloss styles used in text output.
type Styles struct {
	New    lipgloss.Style
	Modify lipgloss.Style
	Delete lipgloss.Style
	Header lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		New:    r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		Modify: r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		Delete: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Header: r.NewStyle().Bold(true),
		Muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
		Error:  r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Renderer writes results for one command.
type Renderer struct {
	w      io.Writer
	errW   io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer. ModeAuto resolves to text when w is a
// terminal and to JSON otherwise.
func NewRenderer(w, errW io.Writer, mode Mode) *Renderer {
	tty := isTerminal(w)
	if mode == ModeAuto || mode == "" {
		mode = ModeJSON
		if tty {
			mode = ModeText
		}
	}

	var opts []termenv.OutputOption
	if !tty {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &Renderer{
		w:      w,
		errW:   errW,
		mode:   mode,
		styles: newStyles(lipgloss.NewRenderer(w, opts...)),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// IsJSON reports whether results are written as JSON.
func (r *Renderer) IsJSON() bool { return r.mode == ModeJSON }

// Styles returns the text styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the result writer.
func (r *Renderer) Writer() io.Writer { return r.w }

// Println writes a line of text output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.w, a...)
}

// Printf writes formatted text output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.w, format, a...)
}

// Warnf writes a message to the error stream.
func (r *Renderer) Warnf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.errW, format, a...)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
