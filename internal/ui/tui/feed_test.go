package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/pdd/internal/event"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		ev   event.Event
		want string
	}{
		{"opened", event.Event{Type: event.Opened, Path: "/dev/sda"}, "opened /dev/sda"},
		{"direct disabled", event.Event{Type: event.DirectIODisabled, Reason: "not supported"}, "direct I/O disabled: not supported"},
		{"failed", event.Event{Type: event.Failed, Error: errors.New("boom")}, "boom"},
		{"failed without error", event.Event{Type: event.Failed}, "failed"},
		{"unknown", event.Event{}, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.ev))
		})
	}
}

func TestDescribe_CopyStarted(t *testing.T) {
	known := describe(event.Event{Type: event.CopyStarted, BlockSize: 4096, Total: 1 << 20})
	assert.True(t, strings.HasPrefix(known, "copying "))
	assert.Contains(t, known, " in ")

	unknown := describe(event.Event{Type: event.CopyStarted, BlockSize: 4096})
	assert.True(t, strings.HasPrefix(unknown, "copying in "))
}

func TestFeedView_RecordsErrors(t *testing.T) {
	f := newFeedView()
	f.handleEvent(event.Event{Type: event.Opened, Path: "a"})
	f.handleEvent(event.Event{Type: event.Failed, Error: errors.New("short write")})

	assert.Len(t, f.entries, 2)
	assert.Equal(t, []string{"short write"}, f.errors)
}

func TestFeedView_AutoScrollShowsNewest(t *testing.T) {
	f := newFeedView()
	for i := range 20 {
		f.handleEvent(event.Event{Type: event.Opened, Path: string(rune('a' + i)), Timestamp: time.Now()})
	}

	out := f.view(5)
	assert.Contains(t, out, "opened t")
	assert.NotContains(t, out, "opened a\n")
	assert.Equal(t, 16, f.scrollOffset)
}

func TestFeedView_ScrollClamps(t *testing.T) {
	f := newFeedView()
	for range 3 {
		f.handleEvent(event.Event{Type: event.Opened, Path: "x"})
	}
	for range 10 {
		f.scrollDown()
	}
	f.view(10)
	assert.Equal(t, 0, f.scrollOffset)

	f.scrollUp()
	assert.Equal(t, 0, f.scrollOffset)
}
