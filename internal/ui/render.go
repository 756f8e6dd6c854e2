package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// BarWidth is the number of cells in the progress bar.
const BarWidth = 20

// barColumns is the widest line the bar renderer draws. Narrower terminals
// get the line without the bar cells, since a wrapped line cannot be redrawn
// in place.
const barColumns = 72

// Renderer draws frames produced by a Monitor. Render is called once per
// tick with a Ready frame; Finish is called exactly once with the last frame.
type Renderer interface {
	Render(f Frame)
	Finish(f Frame)
}

// BarStyles colours parts of the bar line. The zero value renders plain text.
type BarStyles struct {
	Filled  lipgloss.Style
	Percent lipgloss.Style
	Rate    lipgloss.Style
	ETA     lipgloss.Style
}

// barRenderer redraws a single line in place with a carriage return.
type barRenderer struct {
	w       io.Writer
	styles  BarStyles
	color   bool
	columns int // terminal width, 0 when unknown
}

// NewBarRenderer returns a Renderer drawing an in-place bar on w. styles may
// be nil for plain output.
func NewBarRenderer(w io.Writer, styles *BarStyles) Renderer {
	return newBarRenderer(w, styles, 0)
}

func newBarRenderer(w io.Writer, styles *BarStyles, columns int) *barRenderer {
	r := &barRenderer{w: w, columns: columns}
	if styles != nil {
		r.styles = *styles
		r.color = true
	}
	return r
}

func (r *barRenderer) Render(f Frame) {
	fmt.Fprint(r.w, r.line(f))
}

func (r *barRenderer) Finish(f Frame) {
	r.Render(f)
	fmt.Fprintln(r.w)
}

func (r *barRenderer) paint(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *barRenderer) line(f Frame) string {
	var b strings.Builder
	b.WriteString("\r\033[K")

	if f.Known {
		if r.columns == 0 || r.columns >= barColumns {
			b.WriteString("[")
			b.WriteString(r.paint(r.styles.Filled, Bar(f.Percent, BarWidth)))
			b.WriteString("] ")
		}
		b.WriteString(r.paint(r.styles.Percent, fmt.Sprintf("%3.0f%%", f.Percent)))
		b.WriteString(" | ")
	}

	fmt.Fprintf(&b, "%8s | ", f.Size)
	b.WriteString(r.paint(r.styles.Rate, fmt.Sprintf("%8s/s", f.Rate)))

	if f.Known && f.ETA > 0 && f.Percent < 99.9 {
		b.WriteString(" | ")
		b.WriteString(r.paint(r.styles.ETA, "ETA: "+FormatETA(f.ETA)))
	}
	return b.String()
}

// Bar renders width cells: '=' for completed cells, one '>' boundary cell
// while incomplete and spaces for the rest.
func Bar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(float64(width) * clamp(percent, 0, 100) / 100)
	if filled >= width {
		return strings.Repeat("=", width)
	}
	return strings.Repeat("=", filled) + ">" + strings.Repeat(" ", width-filled-1)
}

// lineRenderer prints a full progress line at most once per interval, for
// logs and pipes where carriage returns would be noise.
type lineRenderer struct {
	w     io.Writer
	every time.Duration
	last  time.Duration // Elapsed of the last printed frame
	any   bool
}

// NewLineRenderer returns a Renderer printing one "progress:" line to w every
// interval.
func NewLineRenderer(w io.Writer, every time.Duration) Renderer {
	return &lineRenderer{w: w, every: every}
}

func (r *lineRenderer) Render(f Frame) {
	if r.any && f.Elapsed-r.last < r.every {
		return
	}
	if !r.any && f.Elapsed < r.every {
		return
	}
	r.print(f)
}

func (r *lineRenderer) Finish(f Frame) {
	r.print(f)
}

func (r *lineRenderer) print(f Frame) {
	r.any = true
	r.last = f.Elapsed
	if f.Known {
		fmt.Fprintf(r.w, "progress: %.0f%% %s/%s %s eta %s\n",
			f.Percent, f.Size, FormatBytes(f.Total), f.Rate+"/s", FormatETA(f.ETA))
		return
	}
	fmt.Fprintf(r.w, "progress: %s copied %s\n", f.Size, f.Rate+"/s")
}

type noneRenderer struct{}

func (noneRenderer) Render(Frame) {}
func (noneRenderer) Finish(Frame) {}
