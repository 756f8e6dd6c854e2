package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Mode selects how progress is displayed.
type Mode int

const (
	ModeAuto     Mode = iota // bar on a terminal, periodic lines otherwise
	ModeProgress             // always the in-place bar
	ModePlain                // always periodic lines
	ModeNone                 // no progress output
)

var modeNames = [...]string{
	ModeAuto:     "auto",
	ModeProgress: "progress",
	ModePlain:    "plain",
	ModeNone:     "none",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode parses a mode name as accepted by --status.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(s, n) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("invalid status %q (want %s)", s, strings.Join(modeNames[:], "|"))
}

// DefaultLineInterval is how often plain mode prints a progress line.
const DefaultLineInterval = 5 * time.Second

// Config configures the progress renderer.
type Config struct {
	Writer io.Writer
	Mode   Mode
	IsTTY  bool
	Quiet  bool
	Styles *BarStyles // optional bar colours, TTY only
	// Columns is the terminal width; 0 draws the full bar line.
	Columns int
}

// NewRenderer creates the appropriate renderer based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewRenderer(cfg Config) Renderer {
	if cfg.Quiet || cfg.Mode == ModeNone {
		return noneRenderer{}
	}
	switch cfg.Mode {
	case ModeProgress:
		return newBarRenderer(cfg.Writer, stylesIf(cfg.IsTTY, cfg.Styles), cfg.Columns)
	case ModePlain:
		return NewLineRenderer(cfg.Writer, DefaultLineInterval)
	}
	if cfg.IsTTY {
		return newBarRenderer(cfg.Writer, cfg.Styles, cfg.Columns)
	}
	return NewLineRenderer(cfg.Writer, DefaultLineInterval)
}

func stylesIf(ok bool, s *BarStyles) *BarStyles {
	if !ok {
		return nil
	}
	return s
}
