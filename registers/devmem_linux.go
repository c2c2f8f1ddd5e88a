//go:build linux

package registers

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMemBackend maps a physical register window through /dev/mem style
// mmap and performs volatile-ish 32-bit accesses against it.
type DevMemBackend struct {
	file *os.File
	mem  []byte
}

// OpenDevMem maps size bytes of the register window at physical address
// base from the given memory device path (typically "/dev/mem").
func OpenDevMem(path string, base int64, size int) (*DevMemBackend, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	mem, err := unix.Mmap(int(file.Fd()), base, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap register window: %w", err)
	}

	return &DevMemBackend{file: file, mem: mem}, nil
}

// Read32 performs a 32-bit load from the mapped window.
func (d *DevMemBackend) Read32(offset uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&d.mem[offset])))
}

// Write32 performs a 32-bit store to the mapped window.
func (d *DevMemBackend) Write32(offset, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&d.mem[offset])), value)
}

// Close unmaps the window and closes the memory device.
func (d *DevMemBackend) Close() error {
	if err := unix.Munmap(d.mem); err != nil {
		d.file.Close()
		return fmt.Errorf("munmap register window: %w", err)
	}
	return d.file.Close()
}
