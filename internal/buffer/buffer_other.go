//go:build !unix

package buffer

import "unsafe"

// alloc over-allocates a Go slice and re-slices it at the first aligned offset.
func alloc(n, align int) (data, raw []byte, err error) {
	raw = make([]byte, n+align)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}
	return raw[off : off+n : off+n], raw, nil
}

func release(_ []byte) error {
	return nil
}
