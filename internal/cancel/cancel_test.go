//go:build unix

package cancel

import (
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagZeroValue(t *testing.T) {
	var f Flag
	assert.False(t, f.IsSet())
}

func TestFlagSetIsSticky(t *testing.T) {
	var f Flag
	f.Set()
	f.Set()
	assert.True(t, f.IsSet())
}

func TestFlagConcurrentSet(t *testing.T) {
	var f Flag
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Set()
			_ = f.IsSet()
		}()
	}
	wg.Wait()
	assert.True(t, f.IsSet())
}

func TestNotifySetsFlagOnSignal(t *testing.T) {
	var f Flag
	stop := Notify(&f, syscall.SIGUSR1)
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	assert.Eventually(t, f.IsSet, 2*time.Second, 5*time.Millisecond)
}

func TestNotifyStopIsIdempotent(t *testing.T) {
	var f Flag
	stop := Notify(&f, syscall.SIGUSR2)
	stop()
	stop()
	assert.False(t, f.IsSet())
}
