//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

const (
	platformName      = "linux"
	hasDirectIO       = true
	hasBlockSizeIoctl = true
	hasDataSync       = true
	directFlag        = unix.O_DIRECT
)

// sectorSize returns the physical sector size via BLKPBSZGET.
//
//nolint:gosec // G115: fd values are small non-negative integers
func sectorSize(f *os.File) (int64, error) {
	n, err := unix.IoctlGetUint32(int(f.Fd()), unix.BLKPBSZGET)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func setDirect(f *os.File, on bool) error {
	fd := f.Fd()
	flags, err := unix.FcntlInt(fd, unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	if on {
		flags |= unix.O_DIRECT
	} else {
		flags &^= unix.O_DIRECT
	}
	_, err = unix.FcntlInt(fd, unix.F_SETFL, flags)
	return err
}

// flush uses fdatasync(2); metadata not needed to read the data back is
// skipped.
func flush(f *os.File) error {
	//nolint:gosec // G115: fd values are small non-negative integers
	return unix.Fdatasync(int(f.Fd()))
}
