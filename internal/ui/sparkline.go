package ui

import (
	"math"
	"slices"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders throughput samples as exactly width block characters,
// scaled to the largest sample. Short input is padded on the left; long input
// keeps the newest samples. Negative and non-finite samples render as the
// lowest block.
func Sparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}

	samples := make([]float64, width)
	if len(data) >= width {
		copy(samples, data[len(data)-width:])
	} else {
		copy(samples[width-len(data):], data)
	}
	for i, v := range samples {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			samples[i] = 0
		}
	}

	peak := slices.Max(samples)
	top := len(sparkBlocks) - 1

	out := make([]rune, width)
	for i, v := range samples {
		if peak <= 0 {
			out[i] = sparkBlocks[0]
			continue
		}
		out[i] = sparkBlocks[min(int(v/peak*float64(top)), top)]
	}
	return string(out)
}
