package ui

import (
	"math"
	"time"

	"github.com/bamsammich/pdd/internal/size"
	"github.com/bamsammich/pdd/internal/stats"
)

const (
	// minElapsed suppresses rendering until rates are meaningful.
	minElapsed = 100 * time.Millisecond
	// maxETA caps extrapolated ETAs from a stalled or barely started copy.
	maxETA = 100 * time.Hour
)

// Frame is a rendered view of one statistics snapshot.
type Frame struct {
	Ready   bool    // enough time has elapsed to render
	Known   bool    // the target total is known
	Percent float64 // 0..100, 0 when the total is unknown
	Speed   float64 // average bytes per second since start
	ETA     time.Duration
	Elapsed time.Duration

	Bytes int64
	Total int64

	Size string // bytes copied, formatted
	Rate string // Speed formatted, without the "/s" suffix
}

// Compute derives a Frame from snap. When final is set and the total is known
// the percentage is forced to 100 and the ETA to zero.
func Compute(snap stats.Snapshot, final bool) Frame {
	f := Frame{
		Ready:   final || snap.Elapsed >= minElapsed,
		Known:   snap.BytesTotal > 0,
		Elapsed: snap.Elapsed,
		Bytes:   snap.BytesCopied,
		Total:   snap.BytesTotal,
	}

	if secs := snap.Elapsed.Seconds(); secs > 0 {
		f.Speed = float64(snap.BytesCopied) / secs
	}

	if f.Known {
		f.Percent = clamp(float64(snap.BytesCopied)/float64(snap.BytesTotal)*100, 0, 100)
		if snap.BytesCopied > 0 && snap.BytesCopied < snap.BytesTotal {
			remaining := float64(snap.BytesTotal - snap.BytesCopied)
			eta := snap.Elapsed.Seconds() * remaining / float64(snap.BytesCopied)
			f.ETA = time.Duration(clamp(eta, 0, maxETA.Seconds()) * float64(time.Second))
		}
		if final {
			f.Percent = 100
			f.ETA = 0
		}
	}

	f.Size = size.Format(float64(snap.BytesCopied))
	f.Rate = size.Format(f.Speed)
	return f
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
