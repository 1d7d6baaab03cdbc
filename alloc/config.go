package alloc

import (
	"fmt"
	"math/bits"
)

const (
	// SlotsPerSector is the bitmap width: every sector holds this many chunks.
	SlotsPerSector = 64

	DefaultSectorSize = 4096
	DefaultMaxSectors = 4
)

// Config describes the sector geometry of an Allocator. It is fixed once the
// allocator is built.
type Config struct {
	// SectorSize is the payload of one sector in bytes. It must be a power of
	// two no smaller than SlotsPerSector.
	SectorSize int `toml:"sector-size"`
	// MaxSectors bounds the active set. The pool holds one extra sector.
	MaxSectors int `toml:"max-sectors"`
}

func DefaultConfig() Config {
	return Config{
		SectorSize: DefaultSectorSize,
		MaxSectors: DefaultMaxSectors,
	}
}

// Validate fills zero fields with defaults and checks the geometry.
func (c *Config) Validate() error {
	if c.SectorSize == 0 {
		c.SectorSize = DefaultSectorSize
	}
	if c.MaxSectors == 0 {
		c.MaxSectors = DefaultMaxSectors
	}
	if c.SectorSize < SlotsPerSector || bits.OnesCount(uint(c.SectorSize)) != 1 {
		return fmt.Errorf("%w: sector size %d must be a power of two >= %d",
			ErrBadConfig, c.SectorSize, SlotsPerSector)
	}
	// handles are stored as int32
	if c.MaxSectors < 0 || c.MaxSectors >= 1<<30 {
		return fmt.Errorf("%w: max sectors %d out of range", ErrBadConfig, c.MaxSectors)
	}
	return nil
}

// ChunkSize is the smallest allocatable unit for this geometry.
func (c Config) ChunkSize() int {
	return c.SectorSize / SlotsPerSector
}

// PoolSize is the number of sectors backing the active set.
func (c Config) PoolSize() int {
	return c.MaxSectors + 1
}
