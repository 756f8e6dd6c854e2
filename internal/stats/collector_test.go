package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorSingleWriterConcurrentReaders(t *testing.T) {
	c := NewCollector()
	const blocks = 10000

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var prevBytes, prevBlocks int64
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := c.Snapshot()
				// Counters are monotonic for every reader.
				assert.GreaterOrEqual(t, s.BytesCopied, prevBytes)
				assert.GreaterOrEqual(t, s.BlocksCopied, prevBlocks)
				prevBytes, prevBlocks = s.BytesCopied, s.BlocksCopied
			}
		}()
	}

	for range blocks {
		c.AddBlock(512)
	}
	close(stop)
	wg.Wait()

	s := c.Snapshot()
	assert.Equal(t, int64(blocks), s.BlocksCopied)
	assert.Equal(t, int64(blocks*512), s.BytesCopied)
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		BlocksCopied: 10,
		BytesCopied:  4096,
		BytesTotal:   8192,
		Elapsed:      1500 * time.Millisecond,
	}
	assert.Equal(t, "blocks=10 bytes=4096 total=8192 elapsed=1.5s", s.String())
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
}

func TestSetTotal(t *testing.T) {
	c := NewCollector()
	c.SetTotal(1024 * 1024)
	assert.Equal(t, int64(1024*1024), c.Snapshot().BytesTotal)
}

func TestRestartKeepsCounters(t *testing.T) {
	c := NewCollector()
	c.AddBlock(100)
	time.Sleep(20 * time.Millisecond)
	c.Restart()

	s := c.Snapshot()
	assert.Equal(t, int64(1), s.BlocksCopied)
	assert.Less(t, s.Elapsed, 20*time.Millisecond)
}

func TestTickAndRollingSpeed(t *testing.T) {
	c := NewCollector()

	for range 5 {
		c.AddBlock(1000)
		c.Tick()
	}

	assert.InDelta(t, 1000.0, c.RollingSpeed(5), 0.01)
}

func TestRollingSpeedPartialWindow(t *testing.T) {
	c := NewCollector()

	c.AddBlock(500)
	c.Tick()
	c.AddBlock(500)
	c.Tick()

	assert.InDelta(t, 500.0, c.RollingSpeed(10), 0.01)
}

func TestRollingSpeedNoSamples(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 0.0, c.RollingSpeed(5))
}

func TestSparklineData(t *testing.T) {
	c := NewCollector()

	for i := range 5 {
		c.AddBlock(int64((i + 1) * 100))
		c.Tick()
	}

	data := c.SparklineData(5)
	require.Len(t, data, 5)
	assert.InDelta(t, 100, data[0], 0.01)
	assert.InDelta(t, 300, data[2], 0.01)
	assert.InDelta(t, 500, data[4], 0.01)
}

func TestSparklineDataNoSamples(t *testing.T) {
	c := NewCollector()
	assert.Nil(t, c.SparklineData(5))
}

func TestRingWraparound(t *testing.T) {
	c := NewCollector()

	for i := range ringSize + 10 {
		c.AddBlock(int64(i + 1))
		c.Tick()
	}

	data := c.SparklineData(ringSize)
	require.Len(t, data, ringSize)
	assert.InDelta(t, float64(ringSize+10), data[ringSize-1], 0.01)
}

func TestSnapshotIncludesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, c.Snapshot().Elapsed, time.Duration(0))
}
