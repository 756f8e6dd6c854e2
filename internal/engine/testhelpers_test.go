package engine

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/pdd/internal/event"
	"github.com/bamsammich/pdd/internal/platform"
)

// writeRandom creates a file of n random bytes under dir and returns its path
// and contents.
func writeRandom(t *testing.T, dir, name string, n int) (string, []byte) {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

// collectEvents returns a channel for Config.Events and a getter for the
// events received. The getter closes the channel and may be called once.
func collectEvents(t *testing.T) (chan<- event.Event, func() []event.Event) {
	t.Helper()
	ch := make(chan event.Event, 64)
	var collected []event.Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			collected = append(collected, ev)
		}
	}()
	var once sync.Once
	drain := func() {
		once.Do(func() { close(ch) })
		<-done
	}
	t.Cleanup(drain)
	return ch, func() []event.Event {
		drain()
		return collected
	}
}

func eventTypes(evs []event.Event) []event.Type {
	types := make([]event.Type, len(evs))
	for i, ev := range evs {
		types[i] = ev.Type
	}
	return types
}

// fakeProbe overrides selected capabilities of the native probe. Direct I/O is
// simulated: DirectFlag is always 0 so files open buffered.
type fakeProbe struct {
	platform.Probe

	blockSize    int64
	directIO     bool
	verifyOK     bool
	verifyCalls  int
	verifySize   int
	clearCalls   int
	flushCalls   int
	onFlush      func(calls int) error
	preallocated int64
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{Probe: platform.Native()}
}

func (p *fakeProbe) Name() string { return "fake" }

func (p *fakeProbe) BlockSize(f *os.File) int64 {
	if p.blockSize > 0 {
		return p.blockSize
	}
	return p.Probe.BlockSize(f)
}

func (p *fakeProbe) SupportsDirectIO() bool { return p.directIO }

func (p *fakeProbe) DirectFlag() int { return 0 }

func (p *fakeProbe) VerifyDirectIO(_ string, size int) bool {
	p.verifyCalls++
	p.verifySize = size
	return p.verifyOK
}

func (p *fakeProbe) ClearDirect(*os.File) error {
	p.clearCalls++
	return nil
}

func (p *fakeProbe) Flush(*os.File) error {
	p.flushCalls++
	if p.onFlush != nil {
		return p.onFlush(p.flushCalls)
	}
	return nil
}

func (p *fakeProbe) Preallocate(_ *os.File, size int64) {
	p.preallocated = size
}
