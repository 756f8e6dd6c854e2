package ui

import (
	"fmt"
	"time"

	"github.com/bamsammich/pdd/internal/stats"
)

// InstantThroughput is reported, in MB/s, for a non-empty copy that finished
// in under a millisecond.
const InstantThroughput = 99999.99

const megabyte = 1024 * 1024

// Summary renders the dd-style completion report:
//
//	<N>+0 records in
//	<N>+0 records out
//	<MB> MB copied, <s> seconds, <MB/s> MB/s
func Summary(snap stats.Snapshot) string {
	mb := float64(snap.BytesCopied) / megabyte
	secs := snap.Elapsed.Seconds()

	return fmt.Sprintf("%d+0 records in\n%d+0 records out\n%.2f MB copied, %.2f seconds, %.2f MB/s",
		snap.BlocksCopied,
		snap.BlocksCopied,
		mb,
		secs,
		Throughput(snap),
	)
}

// Throughput returns average MB/s over the whole run.
func Throughput(snap stats.Snapshot) float64 {
	if snap.BytesCopied == 0 {
		return 0
	}
	if snap.Elapsed < time.Millisecond {
		return InstantThroughput
	}
	return float64(snap.BytesCopied) / megabyte / snap.Elapsed.Seconds()
}
