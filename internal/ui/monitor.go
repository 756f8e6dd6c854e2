package ui

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bamsammich/pdd/internal/stats"
)

// DefaultInterval is the tick period of a Monitor.
const DefaultInterval = 100 * time.Millisecond

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	Stats    stats.Reader
	Renderer Renderer
	Interval time.Duration // DefaultInterval when zero
}

// Monitor samples a stats.Reader on its own goroutine and hands frames to a
// Renderer. It never blocks the copy loop: the only shared state is the
// collector's atomic counters.
type Monitor struct {
	cfg MonitorConfig

	started  atomic.Bool
	done     atomic.Bool
	complete atomic.Bool
	wake     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a Monitor. Call Start to begin sampling.
func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Renderer == nil {
		cfg.Renderer = noneRenderer{}
	}
	return &Monitor{
		cfg:    cfg,
		wake:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Start launches the sampling goroutine. Subsequent calls do nothing.
func (m *Monitor) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go m.loop()
}

// Finish stops the monitor after a successful copy. The final frame shows
// 100% when the total was known. Blocks until the final frame is rendered.
func (m *Monitor) Finish() { m.stop(true) }

// Stop stops the monitor after a cancelled or failed copy, rendering the
// final frame as-is. Blocks until the final frame is rendered.
func (m *Monitor) Stop() { m.stop(false) }

func (m *Monitor) stop(complete bool) {
	m.stopOnce.Do(func() {
		m.complete.Store(complete)
		m.done.Store(true)
		close(m.wake)
	})
	if m.started.Load() {
		<-m.exited
	}
}

func (m *Monitor) loop() {
	defer close(m.exited)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-m.wake:
		}

		if m.done.Load() {
			m.cfg.Renderer.Finish(Compute(m.cfg.Stats.Snapshot(), m.complete.Load()))
			return
		}

		if f := Compute(m.cfg.Stats.Snapshot(), false); f.Ready {
			m.cfg.Renderer.Render(f)
		}
	}
}
