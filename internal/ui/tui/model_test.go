package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/pdd/internal/cancel"
	"github.com/bamsammich/pdd/internal/event"
	"github.com/bamsammich/pdd/internal/stats"
)

func newTestModel() (Model, *stats.Collector, *cancel.Flag) {
	ch := make(chan event.Event, 10)
	c := stats.NewCollector()
	c.SetTotal(1024 * 1024 * 1024)
	flag := &cancel.Flag{}
	return NewModel(ch, c, flag, "/src.img", "/dst.img"), c, flag
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_Init(t *testing.T) {
	m, _, _ := newTestModel()
	assert.NotNil(t, m.Init())
}

func TestModel_KeyQ_CancelsRunningCopy(t *testing.T) {
	m, _, flag := newTestModel()

	model, cmd := update(t, m, key('q'))
	assert.True(t, flag.IsSet())
	assert.True(t, model.cancelling)
	assert.False(t, model.quitting)
	assert.Nil(t, cmd)
	assert.Contains(t, model.statusMsg, "cancelling")

	model, cmd = update(t, model, key('q'))
	assert.True(t, model.quitting)
	assert.NotNil(t, cmd) // tea.Quit
}

func TestModel_CtrlC_CancelsRunningCopy(t *testing.T) {
	m, _, flag := newTestModel()
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, flag.IsSet())
}

func TestModel_KeyQ_QuitsWhenDone(t *testing.T) {
	m, _, flag := newTestModel()
	m.done = true

	model, cmd := update(t, m, key('q'))
	assert.True(t, model.quitting)
	assert.NotNil(t, cmd)
	assert.False(t, flag.IsSet())
}

func TestModel_KeyQ_WithoutFlagQuits(t *testing.T) {
	c := stats.NewCollector()
	m := NewModel(make(chan event.Event), c, nil, "a", "b")

	model, cmd := update(t, m, key('q'))
	assert.True(t, model.quitting)
	assert.NotNil(t, cmd)
}

func TestModel_ViewSwitching(t *testing.T) {
	m, _, _ := newTestModel()
	assert.Equal(t, viewRate, m.mode)

	model, _ := update(t, m, key('f'))
	assert.Equal(t, viewFeed, model.mode)

	model, _ = update(t, model, key('r'))
	assert.Equal(t, viewRate, model.mode)

	model, _ = update(t, model, key('e'))
	assert.Equal(t, viewFeed, model.mode)
}

func TestModel_WindowResize(t *testing.T) {
	m, _, _ := newTestModel()
	model, _ := update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, model.width)
	assert.Equal(t, 40, model.height)
}

func TestModel_EngineEvent(t *testing.T) {
	m, _, _ := newTestModel()

	model, cmd := update(t, m, engineEventMsg(event.Event{
		Type:      event.BlockSizeProbed,
		Path:      "/src.img",
		BlockSize: 64 * 1024,
	}))
	require.Len(t, model.feed.entries, 1)
	assert.Equal(t, int64(64*1024), model.blockSize)
	assert.NotNil(t, cmd)

	model, _ = update(t, model, engineEventMsg(event.Event{Type: event.Completed, Bytes: 10}))
	assert.Equal(t, event.Completed, model.outcome)
}

func TestModel_ChannelDone_StaysOpen(t *testing.T) {
	m, c, _ := newTestModel()
	c.SetTotal(4096)
	c.AddBlock(4096)
	m.outcome = event.Completed

	model, cmd := update(t, m, channelDoneMsg{})
	assert.True(t, model.done)
	assert.False(t, model.quitting)
	assert.Nil(t, cmd)
	assert.InDelta(t, 100.0, model.frame.Percent, 0.001)
}

func TestModel_Tick(t *testing.T) {
	m, c, _ := newTestModel()
	c.AddBlock(1024 * 1024)

	model, cmd := update(t, m, tickMsg(time.Now()))
	assert.Equal(t, int64(1), model.lastSnap.BlocksCopied)
	assert.Equal(t, int64(1024*1024), model.lastSnap.BytesCopied)
	// one tick of 1 MiB at ten ticks per second
	assert.InDelta(t, float64(10*1024*1024), model.lastSpeed, 1)
	assert.NotNil(t, cmd)
}

func TestModel_TickAfterDoneStops(t *testing.T) {
	m, _, _ := newTestModel()
	m.done = true
	_, cmd := update(t, m, tickMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestModel_ViewRate(t *testing.T) {
	m, c, _ := newTestModel()
	m.width = 80
	m.height = 30
	m.blockSize = 128 * 1024
	c.AddBlock(128 * 1024)
	m.stats.Tick()
	m.lastSnap = m.stats.Snapshot()

	out := m.View()
	assert.Contains(t, out, "pdd")
	assert.Contains(t, out, "blocks")
	assert.Contains(t, out, "cancel")
}

func TestModel_ViewFeed(t *testing.T) {
	m, _, _ := newTestModel()
	m.mode = viewFeed
	m.feed.handleEvent(event.Event{Type: event.Opened, Path: "/src.img", Timestamp: time.Now()})

	out := m.View()
	assert.Contains(t, out, "events (1)")
	assert.Contains(t, out, "opened /src.img")
}

func TestModel_ViewQuitting(t *testing.T) {
	m, _, _ := newTestModel()
	m.quitting = true
	assert.Empty(t, m.View())
}

func TestModel_HeaderShowsOutcome(t *testing.T) {
	m, _, _ := newTestModel()
	m.done = true
	m.outcome = event.Cancelled
	assert.Contains(t, m.renderHeader(), "cancelled")

	m.outcome = event.Failed
	assert.Contains(t, m.renderHeader(), "failed")
}

func TestModel_HeaderUnknownTotal(t *testing.T) {
	c := stats.NewCollector()
	m := NewModel(make(chan event.Event), c, nil, "-", "-")
	m.refresh()
	header := m.renderHeader()
	assert.Contains(t, header, "copied")
	assert.NotContains(t, header, "eta")
}

func TestModel_ScrollKeys(t *testing.T) {
	m, _, _ := newTestModel()
	m.mode = viewFeed
	for range 10 {
		m.feed.handleEvent(event.Event{Type: event.Opened, Path: "/src.img"})
	}

	model, _ := update(t, m, key('j'))
	assert.False(t, model.feed.autoScroll)

	model, _ = update(t, model, key('G'))
	assert.True(t, model.feed.autoScroll)

	model, _ = update(t, model, key('g'))
	assert.Equal(t, 0, model.feed.scrollOffset)
	assert.False(t, model.feed.autoScroll)
}

func TestModel_SaveModal_ActivatesOnlyWhenDone(t *testing.T) {
	m, _, _ := newTestModel()

	model, _ := update(t, m, key('s'))
	assert.False(t, model.save.active)

	model.done = true
	model, _ = update(t, model, key('s'))
	assert.True(t, model.save.active)
	assert.Contains(t, model.save.input, "pdd-")
	assert.Contains(t, model.save.input, ".log")
}

func TestModel_SaveModal_EscCancels(t *testing.T) {
	m, _, _ := newTestModel()
	m.done = true
	m.save.active = true
	m.save.input = "test.log"

	model, _ := update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.False(t, model.save.active)
}

func TestModel_SaveModal_TextInput(t *testing.T) {
	m, _, _ := newTestModel()
	m.save.active = true

	model := m
	for _, r := range "abc" {
		model, _ = update(t, model, key(r))
	}
	assert.Equal(t, "abc", model.save.input)
	assert.Equal(t, 3, model.save.cursor)

	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyLeft})
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "ac", model.save.input)

	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "a", model.save.input)
}

func TestModel_SaveResult(t *testing.T) {
	m, _, _ := newTestModel()
	m.save.active = true
	m.save.input = "out.log"

	model, _ := update(t, m, saveResultMsg{})
	assert.False(t, model.save.active)
	assert.Equal(t, "saved to out.log", model.statusMsg)

	model, _ = update(t, model, saveResultMsg{err: errors.New("disk full")})
	assert.Contains(t, model.statusMsg, "disk full")
}

func TestModel_SaveModal_WritesFile(t *testing.T) {
	m, c, _ := newTestModel()
	c.AddBlock(1024)
	m.done = true
	m.outcome = event.Completed
	m.blockSize = 1024
	m.lastSnap = m.stats.Snapshot()
	m.feed.handleEvent(event.Event{Type: event.Completed, Bytes: 1024, Timestamp: time.Now()})

	path := filepath.Join(t.TempDir(), "test-report.log")
	msg := m.writeReport(path)()
	result, ok := msg.(saveResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "pdd transfer report")
	assert.Contains(t, string(content), "/src.img")
	assert.Contains(t, string(content), "/dst.img")
	assert.Contains(t, string(content), "outcome:     completed")
	assert.Contains(t, string(content), "Completed")
}

func TestModel_FooterChangesWhenDone(t *testing.T) {
	m, _, _ := newTestModel()
	footer := m.renderFooter()
	assert.Contains(t, footer, "cancel")
	assert.NotContains(t, footer, "save")

	m.done = true
	footer = m.renderFooter()
	assert.Contains(t, footer, "save")
	assert.Contains(t, footer, "quit")
}
