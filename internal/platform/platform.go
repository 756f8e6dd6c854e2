package platform

import (
	"fmt"
	"os"
	"strings"

	"github.com/bamsammich/pdd/internal/buffer"
)

// Block size bounds and the fallback used when a device cannot be probed.
const (
	DefaultBlockSize int64 = 128 * 1024
	MinBlockSize     int64 = 512
	MaxBlockSize     int64 = 128 * 1024 * 1024
)

// Probe reports device capabilities and exposes the durability primitives the
// copy engine needs. Implementations must degrade rather than fail.
type Probe interface {
	// Name identifies the platform.
	Name() string
	// BlockSize returns the sector size of a block device, or DefaultBlockSize.
	BlockSize(f *os.File) int64
	// SupportsDirectIO reports whether the platform has a direct I/O open flag.
	SupportsDirectIO() bool
	// DirectFlag is the open(2) flag enabling direct I/O, or 0.
	DirectFlag() int
	// VerifyDirectIO performs a throwaway aligned write of size bytes to a
	// temporary file in dir with direct I/O enabled.
	VerifyDirectIO(dir string, size int) bool
	// ClearDirect turns direct I/O off on an open descriptor.
	ClearDirect(f *os.File) error
	// Flush commits written data to stable storage.
	Flush(f *os.File) error
	// Preallocate reserves size bytes for f without changing its length.
	// Advisory; errors are ignored.
	Preallocate(f *os.File, size int64)
}

// Native returns the Probe for the platform the binary was built for.
//
//nolint:ireturn // callers substitute fakes in tests
func Native() Probe {
	return native{}
}

type native struct{}

func (native) Name() string { return platformName }

func (native) BlockSize(f *os.File) int64 {
	if !hasBlockSizeIoctl || !IsBlockDevice(f) {
		return DefaultBlockSize
	}
	n, err := sectorSize(f)
	if err != nil || n <= 0 {
		return DefaultBlockSize
	}
	return n
}

func (native) SupportsDirectIO() bool { return hasDirectIO }

func (native) DirectFlag() int { return directFlag }

func (native) VerifyDirectIO(dir string, size int) bool {
	if !hasDirectIO || size <= 0 {
		return false
	}
	return verifyDirectIO(dir, size)
}

func (native) ClearDirect(f *os.File) error {
	if !hasDirectIO {
		return nil
	}
	return setDirect(f, false)
}

func (native) Flush(f *os.File) error { return flush(f) }

func (native) Preallocate(f *os.File, size int64) {
	if size > 0 {
		preallocate(f, size)
	}
}

// IsBlockDevice reports whether f refers to a block (not character) device.
func IsBlockDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	m := fi.Mode()
	return m&os.ModeDevice != 0 && m&os.ModeCharDevice == 0
}

func verifyDirectIO(dir string, size int) bool {
	f, err := os.CreateTemp(dir, "pdd-direct-test-*")
	if err != nil {
		return false
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := setDirect(f, true); err != nil {
		return false
	}

	buf, err := buffer.Allocate(size)
	if err != nil {
		return false
	}
	defer buf.Free() //nolint:errcheck // throwaway buffer

	n, err := f.Write(buf.Bytes()[:size])
	return err == nil && n == size
}

// Report describes the capabilities compiled into this binary.
type Report struct {
	Platform           string
	DirectIO           bool
	BlockSizeDetection bool
	DataSync           bool
	DefaultBlockSize   int64
	MinBlockSize       int64
	MaxBlockSize       int64
	Alignment          int
}

// Capabilities returns the Report for the native platform.
func Capabilities() Report {
	return Report{
		Platform:           platformName,
		DirectIO:           hasDirectIO,
		BlockSizeDetection: hasBlockSizeIoctl,
		DataSync:           hasDataSync,
		DefaultBlockSize:   DefaultBlockSize,
		MinBlockSize:       MinBlockSize,
		MaxBlockSize:       MaxBlockSize,
		Alignment:          buffer.Alignment(),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "platform:                %s\n", r.Platform)
	fmt.Fprintf(&b, "direct I/O:              %s\n", yesNo(r.DirectIO))
	fmt.Fprintf(&b, "block size detection:    %s\n", yesNo(r.BlockSizeDetection))
	fmt.Fprintf(&b, "data-only flush:         %s\n", yesNo(r.DataSync))
	fmt.Fprintf(&b, "buffer alignment:        %d bytes\n", r.Alignment)
	fmt.Fprintf(&b, "default block size:      %d bytes\n", r.DefaultBlockSize)
	fmt.Fprintf(&b, "block size range:        %d - %d bytes\n", r.MinBlockSize, r.MaxBlockSize)
	return b.String()
}
