// Package buffer allocates page-aligned I/O buffers suitable for direct I/O.
package buffer

import (
	"fmt"
	"os"
)

// minAlignment is the floor applied to the platform page size.
const minAlignment = 4096

// Buffer is a memory region whose base address and length are multiples of
// Alignment(). The zero value and nil are valid, empty buffers.
type Buffer struct {
	data []byte
	// raw is the underlying allocation released by Free.
	raw []byte
}

// Alignment returns max(page size, 4096).
func Alignment() int {
	if ps := os.Getpagesize(); ps > minAlignment {
		return ps
	}
	return minAlignment
}

// RoundUp rounds n up to the next multiple of Alignment().
func RoundUp(n int) int {
	a := Alignment()
	return (n + a - 1) &^ (a - 1)
}

// Allocate returns an aligned buffer at least size bytes long.
func Allocate(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("allocate aligned buffer: invalid size %d", size)
	}
	n := RoundUp(size)
	data, raw, err := alloc(n, Alignment())
	if err != nil {
		return nil, fmt.Errorf("allocate aligned buffer of %d bytes: %w", n, err)
	}
	return &Buffer{data: data, raw: raw}, nil
}

// Bytes returns the whole aligned region.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the rounded-up length of the region.
func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Free releases the region. Calling Free on a nil or already freed buffer is a
// no-op.
func (b *Buffer) Free() error {
	if b == nil || b.raw == nil {
		return nil
	}
	raw := b.raw
	b.data, b.raw = nil, nil
	return release(raw)
}
