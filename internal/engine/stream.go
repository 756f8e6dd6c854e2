package engine

import (
	"io"
	"os"
)

type direction int

const (
	source direction = iota
	destination
)

// stream is one end of the copy. Inherited standard streams are never closed.
type stream struct {
	f    *os.File
	path string
	dir  direction
	std  bool
}

// name is the stream as it appears in diagnostics.
func (s *stream) name() string {
	if !s.std {
		return s.path
	}
	if s.dir == source {
		return "standard input"
	}
	return "standard output"
}

func (s *stream) mode() os.FileMode {
	fi, err := s.f.Stat()
	if err != nil {
		return 0
	}
	return fi.Mode()
}

func (s *stream) isRegular() bool { return s.mode().IsRegular() }

func (s *stream) isBlockDevice() bool {
	m := s.mode()
	return m&os.ModeDevice != 0 && m&os.ModeCharDevice == 0
}

// size returns the byte length of a regular file or block device, or 0 when
// it cannot be known. The read cursor is left at the start.
func (s *stream) size() int64 {
	if s.std {
		return 0
	}
	if s.isRegular() {
		fi, err := s.f.Stat()
		if err != nil {
			return 0
		}
		return fi.Size()
	}
	if s.isBlockDevice() {
		end, err := s.f.Seek(0, io.SeekEnd)
		if err != nil {
			return 0
		}
		if _, err := s.f.Seek(0, io.SeekStart); err != nil {
			return 0
		}
		return end
	}
	return 0
}
