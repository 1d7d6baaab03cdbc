package alloc

import (
	"math"
	"math/bits"
	"sync/atomic"
	"unsafe"
)

// exclusive is the viewers value of a sector claimed for activation or
// teardown. No probe may use the sector while it is set.
const exclusive = math.MaxUint32

// sector is one fixed-size mapping divided into SlotsPerSector chunks.
//
//	viewers == 0          idle
//	viewers in [1, max)   number of goroutines probing the bitmap
//	viewers == max        exclusively claimed
//
// base is nil until the sector has been mapped.
type sector struct {
	viewers atomic.Uint32
	slots   atomic.Uint64
	base    atomic.Pointer[byte]

	size  uintptr
	chunk uintptr
}

// init sets the geometry of an unmapped sector in place.
func (s *sector) init(size int) {
	s.size = uintptr(size)
	s.chunk = uintptr(size / SlotsPerSector)
}

// chunksFor rounds size up to a whole number of chunks.
func (s *sector) chunksFor(size uintptr) uintptr {
	return (size + s.chunk - 1) / s.chunk
}

// runMask returns n contiguous set bits starting at bit 0.
func runMask(n uintptr) uint64 {
	return ^uint64(0) >> (SlotsPerSector - n)
}

// activate maps the sector's backing memory. It fails if the sector is
// already mapped, if the mapping fails, or if another goroutine published a
// mapping first (in which case ours is returned to the OS).
func (s *sector) activate(m Mapper) error {
	if s.base.Load() != nil {
		return errAlreadyMapped
	}

	mem, err := m.Map(int(s.size))
	if err != nil {
		return err
	}

	if !s.base.CompareAndSwap(nil, &mem[0]) {
		_ = m.Unmap(mem)
		return errAlreadyMapped
	}
	return nil
}

// unmap returns the mapping to the OS and resets the sector to its
// unmapped state. The caller must hold the exclusive claim.
func (s *sector) unmap(m Mapper) error {
	p := s.base.Load()
	if p == nil {
		return nil
	}
	err := m.Unmap(unsafe.Slice(p, s.size))
	s.slots.Store(0)
	s.base.Store(nil)
	return err
}

// claim reserves enough contiguous chunks for size bytes and returns the
// first chunk index. The scan is first-fit from chunk 0.
func (s *sector) claim(size uintptr) (uintptr, bool) {
	n := s.chunksFor(size)
	if n == 0 || n > SlotsPerSector {
		return 0, false
	}
	mask := runMask(n)

	for off := uintptr(0); off <= SlotsPerSector-n; off++ {
		shifted := mask << off
		for {
			cur := s.slots.Load()
			if cur&shifted != 0 {
				break
			}
			if s.slots.CompareAndSwap(cur, cur|shifted) {
				return off, true
			}
			// bitmap changed underneath us, retry this offset
		}
	}
	return 0, false
}

// owns reports the chunk index of ptr if it lies inside this sector.
func (s *sector) owns(ptr unsafe.Pointer) (uintptr, bool) {
	p := s.base.Load()
	if p == nil {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(p))
	addr := uintptr(ptr)
	if addr < base || addr-base >= s.size {
		return 0, false
	}
	return (addr - base) / s.chunk, true
}

// release clears the chunks of an allocation of size bytes at ptr. It
// returns false if ptr is not inside this sector.
func (s *sector) release(ptr unsafe.Pointer, size uintptr) bool {
	idx, ok := s.owns(ptr)
	if !ok {
		return false
	}
	n := s.chunksFor(size)
	if n > SlotsPerSector {
		n = SlotsPerSector
	}
	shifted := runMask(n) << idx

	for {
		cur := s.slots.Load()
		if s.slots.CompareAndSwap(cur, cur&^shifted) {
			return true
		}
	}
}

// address converts a chunk index into a pointer.
func (s *sector) address(off uintptr) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(s.base.Load()), off*s.chunk)
}

// view registers a probing goroutine. It fails while the sector is
// exclusively claimed.
func (s *sector) view() bool {
	for {
		v := s.viewers.Load()
		if v >= exclusive-1 {
			return false
		}
		if s.viewers.CompareAndSwap(v, v+1) {
			return true
		}
	}
}

func (s *sector) unview() {
	s.viewers.Add(^uint32(0))
}

// lock takes the exclusive claim on an idle sector.
func (s *sector) lock() bool {
	return s.viewers.CompareAndSwap(0, exclusive)
}

func (s *sector) unlock() {
	s.viewers.Store(0)
}

func (s *sector) mapped() bool {
	return s.base.Load() != nil
}

func (s *sector) used() int {
	return bits.OnesCount64(s.slots.Load())
}
