package alloc

import "fmt"

// Stats is a point-in-time view of an Allocator. Fields are read without
// stopping concurrent operations, so they may be mutually inconsistent.
type Stats struct {
	SectorSize int
	ChunkSize  int
	PoolSize   int
	MaxSectors int

	ActiveSectors int
	MappedSectors int
	UsedChunks    int
	Outstanding   int64
}

// CapacityChunks is the number of chunks the active set can hold at most.
func (s Stats) CapacityChunks() int {
	return s.MaxSectors * SlotsPerSector
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"sectors %d/%d active, %d mapped, chunks %d/%d used (%dB each), outstanding %d",
		s.ActiveSectors, s.MaxSectors, s.MappedSectors,
		s.UsedChunks, s.CapacityChunks(), s.ChunkSize, s.Outstanding,
	)
}

func (a *Allocator) Stats() Stats {
	st := Stats{
		SectorSize:    a.cfg.SectorSize,
		ChunkSize:     a.cfg.ChunkSize(),
		PoolSize:      len(a.pool),
		MaxSectors:    len(a.active),
		ActiveSectors: int(a.numActive.Load()),
		Outstanding:   a.outstanding.Load(),
	}
	for i := range a.pool {
		s := &a.pool[i]
		if s.mapped() {
			st.MappedSectors++
			st.UsedChunks += s.used()
		}
	}
	return st
}
