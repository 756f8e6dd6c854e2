package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bamsammich/pdd/internal/platform"
	"github.com/bamsammich/pdd/internal/size"
)

// StdStream is the path placeholder for the inherited stdin/stdout.
const StdStream = "-"

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Error describes a configuration problem detected before any I/O.
type Error struct {
	Field  string
	Value  string
	Reason string
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Options is the validated description of a single copy run.
type Options struct {
	Input     string
	Output    string
	BlockSize int64 // bytes; 0 probes the source
	Count     int64 // blocks; 0 is unbounded
	Skip      int64 // source blocks to skip
	Seek      int64 // destination blocks to seek over
	Sync      bool
	Direct    bool
	Fsync     bool
}

// DefaultOptions returns Options reading stdin and writing stdout with a
// probed block size.
func DefaultOptions() Options {
	return Options{Input: StdStream, Output: StdStream}
}

// Validate checks the invariants the engine relies on.
func (o Options) Validate() error {
	if o.Input == "" {
		return &Error{Field: "if", Reason: "empty path"}
	}
	if o.Output == "" {
		return &Error{Field: "of", Reason: "empty path"}
	}
	if o.BlockSize != 0 && (o.BlockSize < platform.MinBlockSize || o.BlockSize > platform.MaxBlockSize) {
		return &Error{
			Field: "bs",
			Value: fmt.Sprint(o.BlockSize),
			Reason: fmt.Sprintf("block size must be between %s and %s",
				size.Format(float64(platform.MinBlockSize)), size.Format(float64(platform.MaxBlockSize))),
		}
	}
	for _, c := range []struct {
		name string
		v    int64
	}{{"count", o.Count}, {"skip", o.Skip}, {"seek", o.Seek}} {
		if c.v < 0 {
			return &Error{Field: c.name, Value: fmt.Sprint(c.v), Reason: "must not be negative"}
		}
	}
	if o.Input == StdStream && o.Output == StdStream {
		return nil
	}
	if o.Input == o.Output {
		return &Error{Field: "of", Value: o.Output, Reason: "input and output are the same file"}
	}
	if sameFile(o.Input, o.Output) {
		return &Error{Field: "of", Value: o.Output, Reason: fmt.Sprintf("same file as if=%s", o.Input)}
	}
	return nil
}

// IsStdIn reports whether the source is the inherited stdin.
func (o Options) IsStdIn() bool { return o.Input == StdStream }

// IsStdOut reports whether the destination is the inherited stdout.
func (o Options) IsStdOut() bool { return o.Output == StdStream }

func sameFile(a, b string) bool {
	if a == StdStream || b == StdStream {
		return false
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
