package size

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Binary multipliers accepted as operand suffixes.
const (
	KiB int64 = 1024
	MiB       = 1024 * KiB
	GiB       = 1024 * MiB
)

var units = [...]string{"B", "KB", "MB", "GB", "TB"}

// Format renders a byte count with two decimals in the largest unit that keeps
// the value below 1024. TB is the ceiling unit and may exceed 1024.
func Format(b float64) string {
	unit := 0
	for b >= 1024 && unit < len(units)-1 {
		b /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", b, units[unit])
}

// ErrOverflow is returned when a parsed size does not fit in an int64.
var ErrOverflow = errors.New("size out of range")

// Parse parses a decimal count with an optional K, M or G suffix
// (case-insensitive, powers of 1024).
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	multiplier := int64(1)
	numStr := s

	switch strings.ToUpper(s[len(s)-1:]) {
	case "K":
		multiplier = KiB
		numStr = s[:len(s)-1]
	case "M":
		multiplier = MiB
		numStr = s[:len(s)-1]
	case "G":
		multiplier = GiB
		numStr = s[:len(s)-1]
	}

	if numStr == "" {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	n, err := strconv.ParseUint(numStr, 10, 63)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%q: %w", s, ErrOverflow)
		}
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	if n > uint64(math.MaxInt64/multiplier) {
		return 0, fmt.Errorf("%q: %w", s, ErrOverflow)
	}

	return int64(n) * multiplier, nil
}
