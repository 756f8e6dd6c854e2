package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/pdd/internal/cancel"
	"github.com/bamsammich/pdd/internal/event"
	"github.com/bamsammich/pdd/internal/stats"
	"github.com/bamsammich/pdd/internal/ui"
)

type viewMode int

const (
	viewRate viewMode = iota
	viewFeed
)

// tickInterval matches the refresh rate of the line monitor.
const tickInterval = ui.DefaultInterval

// ticksPerSecond converts per-tick deltas from the collector to bytes/s.
const ticksPerSecond = int(time.Second / tickInterval)

// Bubble Tea messages.
type engineEventMsg event.Event
type channelDoneMsg struct{}
type tickMsg time.Time
type saveResultMsg struct{ err error }

// readNextEvent returns a tea.Cmd that blocks on the event channel.
func readNextEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return channelDoneMsg{}
		}
		return engineEventMsg(ev)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// saveModal manages the text input overlay for saving a report.
type saveModal struct {
	active bool
	input  string
	cursor int
}

func (s *saveModal) insertRune(r rune) {
	s.input = s.input[:s.cursor] + string(r) + s.input[s.cursor:]
	s.cursor++
}

func (s *saveModal) backspace() {
	if s.cursor > 0 {
		s.input = s.input[:s.cursor-1] + s.input[s.cursor:]
		s.cursor--
	}
}

func (s *saveModal) deleteChar() {
	if s.cursor < len(s.input) {
		s.input = s.input[:s.cursor] + s.input[s.cursor+1:]
	}
}

func (s *saveModal) moveLeft() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *saveModal) moveRight() {
	if s.cursor < len(s.input) {
		s.cursor++
	}
}

func (s *saveModal) render() string {
	prompt := styleSavePrompt.Render("Save to: ")
	before := s.input[:s.cursor]
	after := s.input[s.cursor:]
	cursor := styleSaveInput.Render("█")
	return "  " + prompt + styleSaveInput.Render(before) + cursor + styleSaveInput.Render(after)
}

// Model is the root Bubble Tea model.
type Model struct {
	events <-chan event.Event
	stats  stats.ReadTicker
	cancel *cancel.Flag
	src    string
	dst    string

	mode       viewMode
	feed       feedView
	rate       rateView
	width      int
	height     int
	statusMsg  string
	done       bool // event channel closed, copy finished
	cancelling bool
	quitting   bool

	blockSize int64
	outcome   event.Type // Completed, Cancelled or Failed once known

	lastSnap  stats.Snapshot
	lastSpeed float64
	frame     ui.Frame

	save saveModal
}

// NewModel creates a new TUI model. flag may be nil, in which case quitting
// while the copy runs only closes the interface.
func NewModel(events <-chan event.Event, collector stats.ReadTicker, flag *cancel.Flag, src, dst string) Model {
	return Model{
		events: events,
		stats:  collector,
		cancel: flag,
		src:    src,
		dst:    dst,
		feed:   newFeedView(),
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		readNextEvent(m.events),
		tickCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case engineEventMsg:
		return m.handleEngineEvent(event.Event(msg))

	case channelDoneMsg:
		m.done = true
		m.refresh()
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.stats.Tick()
		m.refresh()
		return m, tickCmd()

	case saveResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("saved to %s", m.save.input)
		}
		m.save.active = false
		return m, nil
	}

	return m, nil
}

func (m *Model) refresh() {
	m.lastSnap = m.stats.Snapshot()
	m.frame = ui.Compute(m.lastSnap, m.done && m.outcome == event.Completed)
	if m.done {
		m.lastSpeed = m.frame.Speed
		return
	}
	m.lastSpeed = m.stats.RollingSpeed(ticksPerSecond) * float64(ticksPerSecond)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// When save modal is active, capture all input.
	if m.save.active {
		return m.handleSaveKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if m.done || m.cancelling || m.cancel == nil {
			m.quitting = true
			return m, tea.Quit
		}
		m.cancel.Set()
		m.cancelling = true
		m.statusMsg = "cancelling, press q again to leave"
		return m, nil

	case "r":
		m.mode = viewRate
		m.statusMsg = ""
		return m, nil

	case "f", "e":
		m.mode = viewFeed
		m.statusMsg = ""
		return m, nil

	case "j", "down":
		if m.mode == viewFeed {
			m.feed.scrollDown()
		}
		return m, nil

	case "k", "up":
		if m.mode == viewFeed {
			m.feed.scrollUp()
		}
		return m, nil

	case "G":
		if m.mode == viewFeed {
			m.feed.scrollToBottom()
		}
		return m, nil

	case "g":
		if m.mode == viewFeed {
			m.feed.scrollToTop()
		}
		return m, nil

	case "s":
		if m.done {
			m.save.active = true
			m.save.input = fmt.Sprintf("pdd-%s.log", time.Now().Format("2006-01-02-150405"))
			m.save.cursor = len(m.save.input)
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.save.active = false
		m.statusMsg = ""
		return m, nil

	case tea.KeyEnter:
		return m, m.writeReport(m.save.input)

	case tea.KeyBackspace:
		m.save.backspace()
		return m, nil

	case tea.KeyDelete:
		m.save.deleteChar()
		return m, nil

	case tea.KeyLeft:
		m.save.moveLeft()
		return m, nil

	case tea.KeyRight:
		m.save.moveRight()
		return m, nil

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.save.insertRune(r)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) outcomeLabel() string {
	switch m.outcome {
	case event.Completed:
		return "completed"
	case event.Cancelled:
		return "cancelled"
	case event.Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (m Model) writeReport(path string) tea.Cmd {
	// Capture data needed by the goroutine.
	snap := m.lastSnap
	src, dst := m.src, m.dst
	blockSize := m.blockSize
	outcome := m.outcomeLabel()
	entries := make([]feedEntry, len(m.feed.entries))
	copy(entries, m.feed.entries)

	return func() tea.Msg {
		var b strings.Builder

		b.WriteString("pdd transfer report\n")
		b.WriteString("===================\n")
		fmt.Fprintf(&b, "source:      %s\n", src)
		fmt.Fprintf(&b, "destination: %s\n", dst)
		fmt.Fprintf(&b, "outcome:     %s\n", outcome)
		fmt.Fprintf(&b, "finished:    %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "duration:    %s\n", ui.FormatDuration(snap.Elapsed))
		fmt.Fprintf(&b, "blocks:      %s\n", ui.FormatCount(snap.BlocksCopied))
		fmt.Fprintf(&b, "block size:  %s\n", ui.FormatBytes(blockSize))
		fmt.Fprintf(&b, "size:        %s\n", ui.FormatBytes(snap.BytesCopied))
		fmt.Fprintf(&b, "avg speed:   %s\n", ui.FormatRate(ui.Compute(snap, false).Speed))
		b.WriteString("\n--- events ---\n")

		for _, e := range entries {
			fmt.Fprintf(&b, "%s  %-18s  %s\n", e.at.Format("15:04:05.000"), e.typ, e.text)
		}

		err := os.WriteFile(path, []byte(b.String()), 0o644) //nolint:gosec // user-chosen path for report output
		return saveResultMsg{err: err}
	}
}

func (m Model) handleEngineEvent(ev event.Event) (tea.Model, tea.Cmd) {
	m.feed.handleEvent(ev)

	switch ev.Type {
	case event.BlockSizeProbed, event.CopyStarted:
		if ev.BlockSize > 0 {
			m.blockSize = ev.BlockSize
		}
	case event.Completed, event.Cancelled, event.Failed:
		m.outcome = ev.Type
	}

	return m, readNextEvent(m.events)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	// header (1) + footer (1) + save/status (1)
	contentHeight := max(m.height-3, 3)

	switch m.mode {
	case viewRate:
		b.WriteString(m.rate.view(m.width, m.lastSnap, m.stats, m.lastSpeed, float64(ticksPerSecond), m.blockSize))
	case viewFeed:
		b.WriteString(m.feed.view(contentHeight))
	}

	switch {
	case m.save.active:
		b.WriteString(m.save.render())
		b.WriteByte('\n')
	case m.statusMsg != "":
		b.WriteString(styleStatus.Render("  " + m.statusMsg))
		b.WriteByte('\n')
	default:
		b.WriteByte('\n')
	}

	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	f := m.frame
	label := styleHeaderLabel.Render("pdd")

	if m.done {
		status := styleIconDone.Render(m.outcomeLabel())
		switch m.outcome {
		case event.Failed:
			status = styleIconFailed.Render(m.outcomeLabel())
		case event.Cancelled:
			status = styleIconWarn.Render(m.outcomeLabel())
		}
		return styleHeader.Render(fmt.Sprintf("  %s  %s  %s  %s",
			label, status, ui.FormatBytes(m.lastSnap.BytesCopied), ui.FormatDuration(m.lastSnap.Elapsed)))
	}

	if !f.Known {
		return styleHeader.Render(fmt.Sprintf("  %s  %s copied  %s",
			label, ui.FormatBytes(m.lastSnap.BytesCopied), ui.FormatRate(m.lastSpeed)))
	}

	return styleHeader.Render(fmt.Sprintf("  %s  %3.0f%%  %s  %s / %s  %s  eta %s",
		label,
		f.Percent,
		styleProgressFilled.Render(ui.ProgressBar(f.Percent/100, 10)),
		ui.FormatBytes(f.Bytes),
		ui.FormatBytes(f.Total),
		ui.FormatRate(m.lastSpeed),
		ui.FormatETA(f.ETA),
	))
}

func (m Model) renderFooter() string {
	type keybind struct {
		key   string
		label string
	}

	var binds []keybind
	if m.done {
		binds = []keybind{
			{"s", "save"},
			{"j/k", "scroll"},
			{"r", "rate"},
			{"f", "events"},
			{"q", "quit"},
		}
	} else {
		binds = []keybind{
			{"q", "cancel"},
			{"r", "rate"},
			{"f", "events"},
			{"j/k", "scroll"},
		}
	}

	var parts []string
	for _, kb := range binds {
		parts = append(parts,
			styleKeybindKey.Render(kb.key)+" "+styleKeybindLabel.Render(kb.label))
	}

	return "  " + strings.Join(parts, "   ")
}
