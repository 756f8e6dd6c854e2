package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bamsammich/pdd/internal/stats"
	"github.com/bamsammich/pdd/internal/ui"
)

type rateView struct{}

// view renders the throughput number, a sparkline of recent ticks and a stat
// line. perSecond converts per-tick byte deltas to bytes per second.
func (rateView) view(width int, snap stats.Snapshot, collector stats.ReadTicker, speed, perSecond float64, blockSize int64) string {
	width = max(width, 20)

	var b strings.Builder

	b.WriteString("  " + styleBigNumber.Render(ui.FormatRate(speed)))
	b.WriteString("\n\n")

	sparkWidth := max(width-4, 10)
	data := collector.SparklineData(sparkWidth)
	for i := range data {
		data[i] *= perSecond
	}
	b.WriteString("  " + styleSparkline.Render(ui.Sparkline(data, sparkWidth)))
	b.WriteString("\n\n")

	parts := []string{
		fmt.Sprintf("%s blocks", ui.FormatCount(snap.BlocksCopied)),
		ui.FormatBytes(snap.BytesCopied) + " copied",
		"elapsed " + ui.FormatDuration(snap.Elapsed.Truncate(time.Second)),
	}
	if blockSize > 0 {
		parts = append(parts, "bs "+ui.FormatBytes(blockSize))
	}
	b.WriteString("  " + styleMuted.Render(strings.Join(parts, "   ")))
	b.WriteByte('\n')

	return b.String()
}
