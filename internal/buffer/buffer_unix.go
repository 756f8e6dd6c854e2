//go:build unix

package buffer

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// alloc maps anonymous private memory. Mappings are page-aligned; when the
// requested alignment exceeds the page size the mapping is padded and
// re-sliced.
func alloc(n, align int) (data, raw []byte, err error) {
	pad := 0
	if align > os.Getpagesize() {
		pad = align
	}
	raw, err = unix.Mmap(-1, 0, n+pad, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}
	return raw[off : off+n : off+n], raw, nil
}

func release(raw []byte) error {
	return unix.Munmap(raw)
}
