//go:build darwin

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// _IOR('d', 24, uint32_t) from <sys/disk.h>.
const dkiocGetBlockSize = 0x40046418

const (
	platformName      = "darwin"
	hasDirectIO       = false
	hasBlockSizeIoctl = true
	hasDataSync       = false
	directFlag        = 0
)

//nolint:gosec // G115: fd values are small non-negative integers
func sectorSize(f *os.File) (int64, error) {
	n, err := unix.IoctlGetInt(int(f.Fd()), dkiocGetBlockSize)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// macOS has no O_DIRECT.
func setDirect(_ *os.File, _ bool) error {
	return errors.ErrUnsupported
}

// flush goes through os.File.Sync, which issues F_FULLFSYNC on darwin.
func flush(f *os.File) error {
	return f.Sync()
}
