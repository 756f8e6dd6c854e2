package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bamsammich/pdd/internal/event"
	"github.com/bamsammich/pdd/internal/ui"
)

type feedEntry struct {
	at   time.Time
	typ  event.Type
	text string
}

// feedView is a scrollable log of engine lifecycle events.
type feedView struct {
	entries      []feedEntry
	errors       []string
	scrollOffset int
	autoScroll   bool
}

func newFeedView() feedView {
	return feedView{autoScroll: true}
}

func (f *feedView) handleEvent(ev event.Event) {
	f.entries = append(f.entries, feedEntry{at: ev.Timestamp, typ: ev.Type, text: describe(ev)})
	if ev.Type == event.Failed && ev.Error != nil {
		f.errors = append(f.errors, ev.Error.Error())
	}
}

// describe renders one event as a human-readable line.
func describe(ev event.Event) string {
	switch ev.Type {
	case event.Opened:
		return "opened " + ev.Path
	case event.BlockSizeProbed:
		return fmt.Sprintf("block size %s probed from %s", ui.FormatBytes(ev.BlockSize), ev.Path)
	case event.DirectIODisabled:
		return "direct I/O disabled: " + ev.Reason
	case event.Positioned:
		return fmt.Sprintf("positioned %s at %s", ev.Path, ui.FormatBytes(ev.Offset))
	case event.CopyStarted:
		if ev.Total > 0 {
			return fmt.Sprintf("copying %s in %s blocks", ui.FormatBytes(ev.Total), ui.FormatBytes(ev.BlockSize))
		}
		return fmt.Sprintf("copying in %s blocks", ui.FormatBytes(ev.BlockSize))
	case event.Cancelled:
		return fmt.Sprintf("cancelled after %s", ui.FormatBytes(ev.Bytes))
	case event.Completed:
		return fmt.Sprintf("completed %s", ui.FormatBytes(ev.Bytes))
	case event.Failed:
		if ev.Error != nil {
			return ev.Error.Error()
		}
		return "failed"
	default:
		return ev.Type.String()
	}
}

func icon(t event.Type) string {
	switch t {
	case event.Completed:
		return styleIconDone.Render("✓")
	case event.Failed:
		return styleIconFailed.Render("✗")
	case event.Cancelled, event.DirectIODisabled:
		return styleIconWarn.Render("–")
	default:
		return styleIconInfo.Render("⟩")
	}
}

// scrollDown moves the viewport down one line and disables autoScroll.
func (f *feedView) scrollDown() {
	f.autoScroll = false
	f.scrollOffset++
}

// scrollUp moves the viewport up one line and disables autoScroll.
func (f *feedView) scrollUp() {
	f.autoScroll = false
	if f.scrollOffset > 0 {
		f.scrollOffset--
	}
}

func (f *feedView) scrollToTop() {
	f.autoScroll = false
	f.scrollOffset = 0
}

// scrollToBottom jumps to the newest entry and re-enables autoScroll.
func (f *feedView) scrollToBottom() {
	f.autoScroll = true
}

func (f *feedView) view(height int) string {
	viewport := max(height-1, 1)

	maxOffset := max(len(f.entries)-viewport, 0)
	if f.autoScroll {
		f.scrollOffset = maxOffset
	}
	f.scrollOffset = min(max(f.scrollOffset, 0), maxOffset)

	var b strings.Builder
	b.WriteString(styleDivider.Render(fmt.Sprintf("─ events (%d)", len(f.entries))))
	b.WriteByte('\n')

	end := min(f.scrollOffset+viewport, len(f.entries))
	for _, e := range f.entries[f.scrollOffset:end] {
		text := styleText.Render(e.text)
		if e.typ == event.Failed {
			text = styleError.Render(e.text)
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n", styleMuted.Render(e.at.Format("15:04:05")), icon(e.typ), text)
	}
	return b.String()
}
