package event

import (
	"log/slog"
	"time"
)

// Type identifies the kind of event.
type Type int

const (
	Opened Type = iota + 1
	BlockSizeProbed
	DirectIODisabled
	Positioned
	CopyStarted
	Cancelled
	Completed
	Failed
)

var typeNames = [...]string{
	Opened:           "Opened",
	BlockSizeProbed:  "BlockSizeProbed",
	DirectIODisabled: "DirectIODisabled",
	Positioned:       "Positioned",
	CopyStarted:      "CopyStarted",
	Cancelled:        "Cancelled",
	Completed:        "Completed",
	Failed:           "Failed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single lifecycle event from the copy engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // file the event refers to, if any
	Offset    int64  // byte offset (Positioned)
	BlockSize int64  // BlockSizeProbed, CopyStarted
	Bytes     int64  // bytes copied so far (Cancelled, Completed, Failed)
	Total     int64  // target total, 0 if unknown
	Reason    string // DirectIODisabled
	Error     error
}

// LogValue implements slog.LogValuer so events can be logged as a group
// without zero-valued noise.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", e.Type.String())}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}
	if e.Offset != 0 {
		attrs = append(attrs, slog.Int64("offset", e.Offset))
	}
	if e.BlockSize != 0 {
		attrs = append(attrs, slog.Int64("block_size", e.BlockSize))
	}
	if e.Bytes != 0 {
		attrs = append(attrs, slog.Int64("bytes", e.Bytes))
	}
	if e.Total != 0 {
		attrs = append(attrs, slog.Int64("total", e.Total))
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}
	if e.Error != nil {
		attrs = append(attrs, slog.String("error", e.Error.Error()))
	}
	return slog.GroupValue(attrs...)
}
