package alloc

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Interface is the two-operation contract of a manual allocator.
//
// Release must be passed the same size and align that produced ptr.
type Interface interface {
	Allocate(size, align uintptr) (unsafe.Pointer, error)
	Release(ptr unsafe.Pointer, size, align uintptr)
}

// Allocator is a lock-free heap over a fixed pool of lazily mapped sectors.
//
// Active sectors are published into a fixed array of handles (pool index + 1,
// zero meaning empty). An allocation probes the active sectors in order and
// takes the first one with room; when none has room a spare pool sector is
// mapped and published. Sectors are never retired.
//
// An Allocator is meant to be built once and shared for the life of the
// process. Close exists for tools and tests that need the memory back.
type Allocator struct {
	cfg    Config
	mapper Mapper
	logger *zap.Logger

	active    []atomic.Int32
	numActive atomic.Uint32
	pool      []sector

	outstanding atomic.Int64
	closed      atomic.Bool
}

var _ Interface = (*Allocator)(nil)

type Option func(*Allocator)

func WithLogger(l *zap.Logger) Option {
	return func(a *Allocator) {
		a.logger = l
	}
}

func WithMapper(m Mapper) Option {
	return func(a *Allocator) {
		a.mapper = m
	}
}

// New builds an allocator for cfg. No memory is mapped until the first
// allocation.
func New(cfg Config, opts ...Option) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Allocator{
		cfg:    cfg,
		mapper: defaultMapper(),
		logger: zap.NewNop(),
		active: make([]atomic.Int32, cfg.MaxSectors),
		pool:   make([]sector, cfg.PoolSize()),
	}
	for i := range a.pool {
		a.pool[i].init(cfg.SectorSize)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

var (
	defaultOnce sync.Once
	defaultInst *Allocator
)

// Default returns the process-wide allocator, built on first use with
// DefaultConfig. It is never closed.
func Default() *Allocator {
	defaultOnce.Do(func() {
		a, err := New(DefaultConfig())
		if err != nil {
			panic(err)
		}
		defaultInst = a
	})
	return defaultInst
}

func (a *Allocator) Config() Config {
	return a.cfg
}

// Outstanding is the net number of allocations not yet released. It is a
// debugging aid and plays no part in correctness.
func (a *Allocator) Outstanding() int64 {
	return a.outstanding.Load()
}

func (a *Allocator) check(size, align uintptr) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if size == 0 {
		return ErrZeroSize
	}
	if size > uintptr(a.cfg.SectorSize) {
		return fmt.Errorf("%w: %d > %d", ErrTooLarge, size, a.cfg.SectorSize)
	}
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 || align > uintptr(a.cfg.ChunkSize()) {
		return fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	return nil
}

// Allocate returns memory for size bytes aligned to align. Memory handed out
// from a freshly mapped sector is zeroed; reused chunks are not cleared.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	if err := a.check(size, align); err != nil {
		return nil, err
	}

	var ptr unsafe.Pointer
	a.eachActive(func(s *sector) bool {
		off, ok := s.claim(size)
		if ok {
			ptr = s.address(off)
		}
		return ok
	})
	if ptr == nil {
		var err error
		ptr, err = a.addSectorFor(size)
		if err != nil {
			return nil, err
		}
	}

	a.outstanding.Add(1)
	return ptr, nil
}

// Release returns the chunks behind ptr. An address no active sector owns is
// ignored.
func (a *Allocator) Release(ptr unsafe.Pointer, size, align uintptr) {
	if ptr == nil {
		return
	}
	a.eachActive(func(s *sector) bool {
		return s.release(ptr, size)
	})
	a.outstanding.Add(-1)
}

// eachActive calls fn on every published sector, in publication order,
// while holding a view on it. Iteration stops at the first true result.
func (a *Allocator) eachActive(fn func(*sector) bool) bool {
	n := int(a.numActive.Load())
	for i := 0; i < n; i++ {
		h := a.active[i].Load()
		if h == 0 {
			// slot reserved but not yet stored
			continue
		}
		s := &a.pool[h-1]
		if !s.view() {
			continue
		}
		done := fn(s)
		s.unview()
		if done {
			return true
		}
	}
	return false
}

// addSectorFor maps a spare pool sector, claims size bytes in it and
// publishes it into the active set.
func (a *Allocator) addSectorFor(size uintptr) (unsafe.Pointer, error) {
	if int(a.numActive.Load()) >= len(a.active) {
		return nil, ErrExhausted
	}

	idx, s := a.lockSpare()
	if s == nil {
		return nil, ErrExhausted
	}

	if err := s.activate(a.mapper); err != nil {
		s.unlock()
		a.logger.Warn("sector activation failed",
			zap.Int("sector", idx),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrExhausted, err)
	}

	off, ok := s.claim(size)
	if !ok {
		// size was validated against the sector payload; unreachable
		a.rollback(idx, s)
		return nil, ErrExhausted
	}
	ptr := s.address(off)

	slot, ok := a.publish(idx)
	if !ok {
		a.rollback(idx, s)
		return nil, ErrExhausted
	}
	s.unlock()

	a.logger.Debug("sector activated",
		zap.Int("sector", idx),
		zap.Int("slot", slot),
	)
	return ptr, nil
}

// lockSpare finds an unmapped pool sector and takes its exclusive claim.
func (a *Allocator) lockSpare() (int, *sector) {
	for i := range a.pool {
		s := &a.pool[i]
		if s.mapped() || !s.lock() {
			continue
		}
		// mapped by someone else between the check and the claim
		if s.mapped() {
			s.unlock()
			continue
		}
		return i, s
	}
	return -1, nil
}

// publish reserves the next active slot and stores the handle of pool
// sector idx in it.
func (a *Allocator) publish(idx int) (int, bool) {
	for {
		n := a.numActive.Load()
		if int(n) >= len(a.active) {
			return 0, false
		}
		if a.numActive.CompareAndSwap(n, n+1) {
			a.active[n].Store(int32(idx + 1))
			return int(n), true
		}
	}
}

// rollback returns a mapped but unpublished sector to the pool. The caller
// holds the exclusive claim.
func (a *Allocator) rollback(idx int, s *sector) {
	if err := s.unmap(a.mapper); err != nil {
		a.logger.Warn("sector rollback unmap failed",
			zap.Int("sector", idx),
			zap.Error(err),
		)
	}
	s.unlock()
	a.logger.Debug("sector rolled back", zap.Int("sector", idx))
}

// Close unmaps every mapped sector. It must not race with Allocate or
// Release and leaves the allocator unusable. Memory still held by callers
// becomes invalid.
func (a *Allocator) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	unmapped := 0
	for i := range a.pool {
		s := &a.pool[i]
		if !s.lock() {
			err = multierr.Append(err, fmt.Errorf("sector %d busy on close", i))
			continue
		}
		if s.mapped() {
			unmapped++
		}
		err = multierr.Append(err, s.unmap(a.mapper))
	}
	a.logger.Info("allocator closed",
		zap.Int("unmapped", unmapped),
		zap.Int64("outstanding", a.outstanding.Load()),
		zap.Error(err),
	)
	return err
}
