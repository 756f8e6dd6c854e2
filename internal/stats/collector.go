package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks copy statistics. The copy loop is the only writer of the
// block and byte counters; monitors read them concurrently. Each counter is
// atomic on its own, so a reader may observe a (blocks, bytes) pair from two
// different iterations.
type Collector struct {
	blocksCopied atomic.Int64
	bytesCopied  atomic.Int64
	bytesTotal   atomic.Int64
	startNanos   atomic.Int64

	// Ring buffer, written only by a presenter's Tick().
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per tick
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with the start time set to now.
func NewCollector() *Collector {
	c := &Collector{}
	c.Restart()
	return c
}

// Restart resets the start time to now. Counters are left untouched.
func (c *Collector) Restart() {
	c.startNanos.Store(time.Now().UnixNano())
}

// SetTotal records the number of bytes the run is expected to copy; 0 means
// unknown.
func (c *Collector) SetTotal(bytes int64) { c.bytesTotal.Store(bytes) }

// AddBlock records one block of n bytes. Bytes are published before the block
// count.
func (c *Collector) AddBlock(n int64) {
	c.bytesCopied.Add(n)
	c.blocksCopied.Add(1)
}

// Snapshot is a point-in-time read of the counters.
type Snapshot struct {
	BlocksCopied int64
	BytesCopied  int64
	BytesTotal   int64
	Elapsed      time.Duration
}

// Reader is the read side of a Collector.
type Reader interface {
	Snapshot() Snapshot
}

// ReadTicker is a Reader that also maintains the throughput ring buffer.
type ReadTicker interface {
	Reader
	Tick()
	RollingSpeed(ticks int) float64
	SparklineData(n int) []float64
}

var _ ReadTicker = (*Collector)(nil)

// Snapshot reads all counters. Values are individually exact but not mutually
// synchronized.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		BlocksCopied: c.blocksCopied.Load(),
		BytesCopied:  c.bytesCopied.Load(),
		BytesTotal:   c.bytesTotal.Load(),
		Elapsed:      c.Elapsed(),
	}
}

// Elapsed returns time since the collector was started.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(time.Unix(0, c.startNanos.Load()))
}

// Tick records the byte delta since the previous tick into the ring buffer.
func (c *Collector) Tick() {
	current := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns the average bytes per tick over the last n ticks.
func (c *Collector) RollingSpeed(ticks int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(ticks, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n per-tick byte deltas, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count <= 0 {
		return nil
	}

	data := make([]float64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		data[i] = float64(c.throughput[idx])
	}
	return data
}

func (s Snapshot) String() string {
	return fmt.Sprintf("blocks=%d bytes=%d total=%d elapsed=%s",
		s.BlocksCopied, s.BytesCopied, s.BytesTotal, s.Elapsed.Round(time.Millisecond))
}
