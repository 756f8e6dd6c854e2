package event

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "Opened", typ: Opened},
		{want: "BlockSizeProbed", typ: BlockSizeProbed},
		{want: "DirectIODisabled", typ: DirectIODisabled},
		{want: "Positioned", typ: Positioned},
		{want: "CopyStarted", typ: CopyStarted},
		{want: "Cancelled", typ: Cancelled},
		{want: "Completed", typ: Completed},
		{want: "Failed", typ: Failed},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
	assert.Equal(t, "Unknown", Type(-1).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.True(t, e.Timestamp.IsZero())
	assert.Empty(t, e.Path)
	assert.Zero(t, e.Bytes)
	require.NoError(t, e.Error)
}

func TestLogValueOmitsZeroFields(t *testing.T) {
	e := Event{Type: Completed, Timestamp: time.Now(), Bytes: 4096}

	v := e.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())

	got := map[string]string{}
	for _, a := range v.Group() {
		got[a.Key] = a.Value.String()
	}
	assert.Equal(t, map[string]string{"type": "Completed", "bytes": "4096"}, got)
}

func TestLogValueIncludesError(t *testing.T) {
	e := Event{Type: Failed, Path: "in.img", Error: errors.New("boom")}

	got := map[string]string{}
	for _, a := range e.LogValue().Group() {
		got[a.Key] = a.Value.String()
	}
	assert.Equal(t, "Failed", got["type"])
	assert.Equal(t, "in.img", got["path"])
	assert.Equal(t, "boom", got["error"])
}
