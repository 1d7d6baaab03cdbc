//go:build linux || darwin || freebsd

package alloc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapMapper maps sectors with anonymous private mappings.
type MmapMapper struct{}

func (MmapMapper) Map(size int) ([]byte, error) {
	mem, err := unix.Mmap(
		-1, 0,
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	return mem, nil
}

func (MmapMapper) Unmap(mem []byte) error {
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

func defaultMapper() Mapper {
	return MmapMapper{}
}
