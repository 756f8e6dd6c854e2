package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bamsammich/pdd/internal/buffer"
	"github.com/bamsammich/pdd/internal/cancel"
	"github.com/bamsammich/pdd/internal/config"
	"github.com/bamsammich/pdd/internal/event"
	"github.com/bamsammich/pdd/internal/platform"
	"github.com/bamsammich/pdd/internal/stats"
)

// Config describes a copy operation.
type Config struct {
	Options config.Options

	// Probe supplies block-size discovery and durability primitives.
	// Defaults to platform.Native().
	Probe platform.Probe
	// Stats receives block and byte counts. A fresh collector is used when nil.
	Stats *stats.Collector
	// Cancel is polled between blocks.
	Cancel *cancel.Flag
	// Events, when non-nil, receives lifecycle events. The caller owns the
	// channel and must keep draining it until Run returns.
	Events chan<- event.Event
	// BWLimit caps throughput in bytes per second; 0 is unlimited.
	BWLimit int64

	// Stdin and Stdout back the "-" path. Default to os.Stdin and os.Stdout.
	Stdin  *os.File
	Stdout *os.File
}

// Result is the outcome of a copy operation.
type Result struct {
	Stats     stats.Snapshot
	BlockSize int64
	Direct    bool // direct I/O was active when the copy started
	Cancelled bool
	Err       error
}

// State is a stage of a copy run.
type State int

const (
	Opening State = iota
	Sizing
	Allocating
	Positioning
	Copying
	Draining
	Closed
	Aborting
)

var stateNames = [...]string{
	Opening:     "opening",
	Sizing:      "sizing",
	Allocating:  "allocating",
	Positioning: "positioning",
	Copying:     "copying",
	Draining:    "draining",
	Closed:      "closed",
	Aborting:    "aborting",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Run executes a copy operation, blocking until the source is exhausted, the
// block count is reached, the run is cancelled or an I/O error aborts it.
// Every resource acquired is released before Run returns.
func Run(ctx context.Context, cfg Config) Result {
	return newCopier(cfg).run(ctx)
}

// copier carries the state of one run. The function fields are seams for
// tests.
type copier struct {
	cfg   Config
	opts  config.Options
	probe platform.Probe
	stats *stats.Collector

	openFile  func(name string, flag int, perm os.FileMode) (*os.File, error)
	closeFile func(f *os.File) error
	allocate  func(size int) (*buffer.Buffer, error)

	state    State
	src, dst *stream
	buf      *buffer.Buffer
	bs       int64
	direct   bool
	w        io.Writer

	// release holds cleanup steps in acquisition order; cleanup runs them in
	// reverse.
	release []func() error
}

func newCopier(cfg Config) *copier {
	c := &copier{
		cfg:       cfg,
		opts:      cfg.Options,
		probe:     cfg.Probe,
		stats:     cfg.Stats,
		openFile:  os.OpenFile,
		closeFile: (*os.File).Close,
		allocate:  buffer.Allocate,
	}
	if c.probe == nil {
		c.probe = platform.Native()
	}
	if c.stats == nil {
		c.stats = stats.NewCollector()
	}
	if c.cfg.Stdin == nil {
		c.cfg.Stdin = os.Stdin
	}
	if c.cfg.Stdout == nil {
		c.cfg.Stdout = os.Stdout
	}
	return c
}

func (c *copier) run(ctx context.Context) (res Result) {
	defer func() {
		if err := c.cleanup(); err != nil && res.Err == nil {
			res.Err = err
		}
		res.Stats = c.stats.Snapshot()
		res.BlockSize = c.bs
		if res.Err != nil {
			c.emit(ctx, event.Event{Type: event.Failed, Bytes: res.Stats.BytesCopied, Error: res.Err})
		} else if !res.Cancelled {
			c.emit(ctx, event.Event{
				Type:  event.Completed,
				Bytes: res.Stats.BytesCopied,
				Total: res.Stats.BytesTotal,
			})
		}
	}()

	if err := c.opts.Validate(); err != nil {
		return c.abort(err)
	}

	c.direct = c.negotiateDirect(ctx)

	c.state = Opening
	if err := c.openSource(ctx); err != nil {
		return c.abort(err)
	}
	if err := c.openDestination(ctx); err != nil {
		return c.abort(err)
	}

	c.state = Sizing
	c.bs = c.opts.BlockSize
	if c.bs == 0 {
		c.bs = c.probe.BlockSize(c.src.f)
		slog.Debug("probed block size", "path", c.src.name(), "block_size", c.bs)
		c.emit(ctx, event.Event{Type: event.BlockSizeProbed, Path: c.src.name(), BlockSize: c.bs})
	}

	c.state = Allocating
	buf, err := c.allocate(int(c.bs))
	if err != nil {
		return c.abort(&OpError{Op: "allocating buffer", Err: err})
	}
	c.buf = buf
	c.push(func() error {
		c.buf.Free()
		return nil
	})

	total := c.targetTotal()

	c.state = Positioning
	if err := c.position(ctx); err != nil {
		return c.abort(err)
	}
	c.stats.SetTotal(total)
	if seekBytes := c.opts.Seek * c.bs; total > 0 && total <= math.MaxInt64-seekBytes &&
		!c.dst.std && c.dst.isRegular() {
		c.probe.Preallocate(c.dst.f, seekBytes+total)
	}

	c.state = Copying
	res.Direct = c.direct
	cancelled, err := c.copyLoop(ctx)
	if err != nil {
		return c.abort(err)
	}
	res.Cancelled = cancelled

	c.state = Draining
	if cancelled {
		snap := c.stats.Snapshot()
		slog.Warn("copy interrupted", "blocks", snap.BlocksCopied, "bytes", snap.BytesCopied)
		c.emit(ctx, event.Event{Type: event.Cancelled, Bytes: snap.BytesCopied, Total: snap.BytesTotal})
	}
	return res
}

// negotiateDirect decides, before anything is opened, whether direct I/O will
// be used. Failures downgrade to buffered I/O with a warning.
func (c *copier) negotiateDirect(ctx context.Context) bool {
	if !c.opts.Direct {
		return false
	}
	if !c.probe.SupportsDirectIO() {
		c.disableDirect(ctx, fmt.Sprintf("not supported on %s", c.probe.Name()))
		return false
	}

	dir := os.TempDir()
	if !c.opts.IsStdOut() {
		dir = filepath.Dir(c.opts.Output)
	}
	size := c.opts.BlockSize
	if size == 0 {
		size = platform.DefaultBlockSize
	}
	if !c.probe.VerifyDirectIO(dir, int(size)) {
		c.disableDirect(ctx, "verification write failed in "+dir)
		return false
	}
	return true
}

func (c *copier) disableDirect(ctx context.Context, reason string) {
	slog.Warn("direct I/O unavailable, using buffered I/O", "reason", reason)
	c.emit(ctx, event.Event{Type: event.DirectIODisabled, Reason: reason})
}

func (c *copier) openSource(ctx context.Context) error {
	if c.opts.IsStdIn() {
		c.src = &stream{f: c.cfg.Stdin, path: config.StdStream, dir: source, std: true}
	} else {
		f, err := c.open(ctx, c.opts.Input, os.O_RDONLY, 0)
		if err != nil {
			return &OpError{Op: "opening input file", Path: c.opts.Input, Err: err}
		}
		c.src = &stream{f: f, path: c.opts.Input, dir: source}
	}
	c.pushClose(c.src)
	c.emit(ctx, event.Event{Type: event.Opened, Path: c.src.name()})
	return nil
}

func (c *copier) openDestination(ctx context.Context) error {
	if c.opts.IsStdOut() {
		c.dst = &stream{f: c.cfg.Stdout, path: config.StdStream, dir: destination, std: true}
	} else {
		flag := os.O_WRONLY | os.O_CREATE
		if c.opts.Seek == 0 {
			flag |= os.O_TRUNC
		}
		if c.opts.Sync {
			flag |= os.O_SYNC
		}
		f, err := c.open(ctx, c.opts.Output, flag, 0o666)
		if err != nil {
			return &OpError{Op: "opening output file", Path: c.opts.Output, Err: err}
		}
		c.dst = &stream{f: f, path: c.opts.Output, dir: destination}
	}
	c.pushClose(c.dst)
	c.emit(ctx, event.Event{Type: event.Opened, Path: c.dst.name()})
	return nil
}

// open adds the direct flag when direct I/O is active. A filesystem that
// rejects it at open time downgrades the whole run to buffered I/O.
func (c *copier) open(ctx context.Context, name string, flag int, perm os.FileMode) (*os.File, error) {
	if !c.direct {
		return c.openFile(name, flag, perm)
	}
	f, err := c.openFile(name, flag|c.probe.DirectFlag(), perm)
	if err == nil || !errors.Is(err, syscall.EINVAL) {
		return f, err
	}
	c.direct = false
	c.disableDirect(ctx, "rejected by the filesystem for "+name)
	if c.src != nil && !c.src.std {
		if cerr := c.probe.ClearDirect(c.src.f); cerr != nil {
			slog.Debug("clearing direct flag", "path", c.src.name(), "error", cerr)
		}
	}
	return c.openFile(name, flag, perm)
}

func (c *copier) push(fn func() error) {
	c.release = append(c.release, fn)
}

func (c *copier) pushClose(s *stream) {
	if s.std {
		return
	}
	c.push(func() error {
		err := c.closeFile(s.f)
		if err != nil && s.dir == destination {
			return &OpError{Op: "closing output file", Path: s.name(), Err: err}
		}
		return nil
	})
}

// cleanup releases everything acquired so far in reverse order. It runs
// exactly once per run and never stops early; the first error is returned.
func (c *copier) cleanup() error {
	var first error
	for i := len(c.release) - 1; i >= 0; i-- {
		if err := c.release[i](); err != nil && first == nil {
			first = err
		}
	}
	c.release = nil
	if c.state != Aborting {
		c.state = Closed
	}
	return first
}

func (c *copier) abort(err error) Result {
	slog.Debug("aborting copy", "state", c.state.String(), "error", err)
	c.state = Aborting
	return Result{Err: err, Direct: c.direct}
}

// targetTotal is the number of bytes the run is expected to copy, or 0 when
// unknown.
func (c *copier) targetTotal() int64 {
	if c.opts.Count > 0 {
		if c.opts.Count > math.MaxInt64/c.bs {
			return math.MaxInt64
		}
		return c.opts.Count * c.bs
	}
	total := c.src.size()
	if total == 0 {
		return 0
	}
	skipped, ok := mulBlocks(c.opts.Skip, c.bs)
	if !ok || skipped >= total {
		return 0
	}
	return total - skipped
}

func mulBlocks(blocks, bs int64) (int64, bool) {
	if blocks > math.MaxInt64/bs {
		return 0, false
	}
	return blocks * bs, true
}

func (c *copier) position(ctx context.Context) error {
	if c.opts.Skip > 0 {
		off, ok := mulBlocks(c.opts.Skip, c.bs)
		if !ok {
			return &OpError{Op: "skipping input", Path: c.src.name(), Err: errOffsetOverflow}
		}
		if err := c.skipSource(off); err != nil {
			return &OpError{Op: "skipping input", Path: c.src.name(), Err: err}
		}
		c.emit(ctx, event.Event{Type: event.Positioned, Path: c.src.name(), Offset: off})
	}

	if c.opts.Seek > 0 {
		off, ok := mulBlocks(c.opts.Seek, c.bs)
		if !ok {
			return &OpError{Op: "seeking output", Path: c.dst.name(), Err: errOffsetOverflow}
		}
		if !c.dst.std && c.dst.isRegular() {
			if err := c.dst.f.Truncate(off); err != nil {
				return &OpError{Op: "truncating output file", Path: c.dst.name(), Err: err}
			}
		}
		if _, err := c.dst.f.Seek(off, io.SeekCurrent); err != nil {
			return &OpError{Op: "seeking output", Path: c.dst.name(), Err: err}
		}
		c.emit(ctx, event.Event{Type: event.Positioned, Path: c.dst.name(), Offset: off})
	}
	return nil
}

// skipSource moves the read cursor off bytes forward, reading and discarding
// when the source cannot seek.
func (c *copier) skipSource(off int64) error {
	_, err := c.src.f.Seek(off, io.SeekCurrent)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.ESPIPE) {
		return err
	}

	p := c.buf.Bytes()[:c.bs]
	remaining := off
	for remaining > 0 {
		chunk := p[:min(int64(len(p)), remaining)]
		n, err := c.src.f.Read(chunk)
		remaining -= int64(n)
		if errors.Is(err, io.EOF) {
			slog.Warn("cannot skip to the requested offset", "path", c.src.name(), "short_by", remaining)
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *copier) cancelled(ctx context.Context) bool {
	if c.cfg.Cancel != nil && c.cfg.Cancel.IsSet() {
		return true
	}
	return ctx.Err() != nil
}

func (c *copier) copyLoop(ctx context.Context) (cancelled bool, err error) {
	c.w = c.dst.f
	if c.cfg.BWLimit > 0 {
		c.w = newRateLimitedWriter(ctx, c.dst.f, NewBWLimiter(c.cfg.BWLimit, c.bs))
	}

	c.stats.Restart()
	c.emit(ctx, event.Event{
		Type:      event.CopyStarted,
		BlockSize: c.bs,
		Total:     c.stats.Snapshot().BytesTotal,
	})
	slog.Debug("copy started",
		"if", c.src.name(),
		"of", c.dst.name(),
		"bs", c.bs,
		"count", c.opts.Count,
		"direct", c.direct,
	)

	p := c.buf.Bytes()[:c.bs]
	var blocks int64
	for c.opts.Count == 0 || blocks < c.opts.Count {
		if c.cancelled(ctx) {
			return true, nil
		}

		n, rerr := c.src.f.Read(p)
		if n == 0 {
			if rerr == nil || errors.Is(rerr, io.EOF) {
				return false, nil
			}
			return false, &OpError{Op: "reading", Path: c.src.name(), Err: rerr}
		}

		// The flag is only consulted at the top of the loop; a failed write
		// aborts even when a signal arrived while it was in flight. Only the
		// limiter giving up on a done context counts as cancellation.
		if err := c.writeBlock(p[:n]); err != nil {
			if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
				return true, nil
			}
			return false, err
		}

		if c.opts.Fsync {
			if err := c.probe.Flush(c.dst.f); err != nil {
				return false, &OpError{Op: "flushing output file", Path: c.dst.name(), Err: err}
			}
		}

		c.stats.AddBlock(int64(n))
		blocks++

		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return false, &OpError{Op: "reading", Path: c.src.name(), Err: rerr}
		}
	}
	return false, nil
}

func (c *copier) writeBlock(p []byte) error {
	if c.direct && int64(len(p)) != c.bs && !c.dst.std {
		// A short block is not a multiple of the verified transfer size.
		if err := c.probe.ClearDirect(c.dst.f); err != nil {
			return &OpError{Op: "clearing direct I/O", Path: c.dst.name(), Err: err}
		}
		c.direct = false
		slog.Debug("direct I/O cleared for short block", "path", c.dst.name(), "bytes", len(p))
	}

	n, err := c.w.Write(p)
	if err != nil {
		return &OpError{Op: "writing", Path: c.dst.name(), Err: err}
	}
	if n != len(p) {
		return &OpError{Op: "writing", Path: c.dst.name(), Err: io.ErrShortWrite}
	}
	return nil
}

func (c *copier) emit(ctx context.Context, ev event.Event) {
	if c.cfg.Events == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case c.cfg.Events <- ev:
	case <-ctx.Done():
	}
}
