package engine

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates a rate.Limiter that caps throughput to bytesPerSec.
// The burst is at most 1 MB but never smaller than blockSize, so a single
// block write can always be admitted.
func NewBWLimiter(bytesPerSec, blockSize int64) *rate.Limiter {
	burst := min(bytesPerSec, 1<<20)
	burst = max(burst, blockSize, 1)
	return rate.NewLimiter(rate.Limit(bytesPerSec), int(burst))
}

// rateLimitedWriter wraps an io.Writer and waits for tokens before each write.
type rateLimitedWriter struct {
	w       io.Writer
	limiter *rate.Limiter
	ctx     context.Context
}

func newRateLimitedWriter(ctx context.Context, w io.Writer, limiter *rate.Limiter) *rateLimitedWriter {
	return &rateLimitedWriter{w: w, limiter: limiter, ctx: ctx}
}

func (rw *rateLimitedWriter) Write(p []byte) (int, error) {
	if err := rw.limiter.WaitN(rw.ctx, len(p)); err != nil {
		return 0, err
	}
	return rw.w.Write(p)
}
