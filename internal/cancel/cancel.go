// Package cancel turns asynchronous termination signals into a flag the copy
// loop polls between blocks.
package cancel

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Flag is a one-way cancellation latch. The zero value is unset.
type Flag struct {
	set atomic.Bool
}

// Set marks the flag. Safe to call from any goroutine, any number of times.
func (f *Flag) Set() { f.set.Store(true) }

// IsSet reports whether Set has been called.
func (f *Flag) IsSet() bool { return f.set.Load() }

// DefaultSignals are the signals that request cancellation of a copy.
var DefaultSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
	syscall.SIGPIPE,
}

// Notify sets flag when any of sigs arrives (DefaultSignals when none are
// given). The returned stop restores default signal handling and waits for the
// relay goroutine to exit.
func Notify(flag *Flag, sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = DefaultSignals
	}

	ch := make(chan os.Signal, 1)
	quit := make(chan struct{})
	var wg sync.WaitGroup

	signal.Notify(ch, sigs...)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ch:
				flag.Set()
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
			wg.Wait()
		})
	}
}
