package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/pdd/internal/cancel"
	"github.com/bamsammich/pdd/internal/config"
	"github.com/bamsammich/pdd/internal/event"
	"github.com/bamsammich/pdd/internal/stats"
)

// Config configures the TUI presenter.
type Config struct {
	Stats  *stats.Collector
	Cancel *cancel.Flag
	Src    string
	Dst    string
	Theme  config.ThemeConfig
}

// Presenter wraps a Bubble Tea program around a single copy.
type Presenter struct {
	cfg Config
}

// NewPresenter creates a new TUI presenter.
func NewPresenter(cfg Config) *Presenter {
	ApplyTheme(cfg.Theme)
	return &Presenter{cfg: cfg}
}

// Run starts the Bubble Tea program and blocks until the user leaves it.
// Signal handling stays with the caller so SIGINT reaches the cancel flag.
func (p *Presenter) Run(events <-chan event.Event) error {
	prog := tea.NewProgram(
		p.model(events),
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	_, err := prog.Run()
	return err
}

func (p *Presenter) model(events <-chan event.Event) Model {
	return NewModel(events, p.cfg.Stats, p.cfg.Cancel, p.cfg.Src, p.cfg.Dst)
}
