//go:build !linux && !darwin

package platform

import (
	"errors"
	"os"
)

const (
	platformName      = "posix"
	hasDirectIO       = false
	hasBlockSizeIoctl = false
	hasDataSync       = false
	directFlag        = 0
)

func sectorSize(_ *os.File) (int64, error) {
	return 0, errors.ErrUnsupported
}

func setDirect(_ *os.File, _ bool) error {
	return errors.ErrUnsupported
}

func flush(f *os.File) error {
	return f.Sync()
}
