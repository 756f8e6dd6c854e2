package engine

import (
	"errors"
	"fmt"
	"syscall"
)

// OpError records the engine operation that failed, the stream it failed on
// and the underlying system error.
type OpError struct {
	Op   string // e.g. "reading", "opening output file"
	Path string // display name of the stream, empty for non-stream operations
	Err  error
}

func (e *OpError) Error() string {
	var msg string
	if e.Path == "" {
		msg = fmt.Sprintf("%s: %s", e.Op, errText(e.Err))
	} else {
		msg = fmt.Sprintf("%s '%s': %s", e.Op, e.Path, errText(e.Err))
	}
	if errno, ok := e.Errno(); ok {
		msg += fmt.Sprintf(" (errno=%d)", int(errno))
	}
	return msg
}

func (e *OpError) Unwrap() error { return e.Err }

// Errno extracts the system error number, if the failure carries one.
func (e *OpError) Errno() (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) && errno != 0 {
		return errno, true
	}
	return 0, false
}

// errText strips os.PathError/SyscallError decoration so the message names the
// path only once.
func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return errno.Error()
	}
	return err.Error()
}

var errOffsetOverflow = errors.New("offset out of range")
