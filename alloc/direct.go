package alloc

import (
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// DirectAllocator maps every allocation separately and unmaps it on release.
// It has no size limit and no sharing between allocations, which makes it a
// useful baseline against the sector allocator.
type DirectAllocator struct {
	mapper      Mapper
	logger      *zap.Logger
	outstanding atomic.Int64
}

var _ Interface = (*DirectAllocator)(nil)

type DirectOption func(*DirectAllocator)

func WithDirectLogger(l *zap.Logger) DirectOption {
	return func(d *DirectAllocator) {
		d.logger = l
	}
}

// NewDirect builds a DirectAllocator over m, or over the platform mapper if m
// is nil.
func NewDirect(m Mapper, opts ...DirectOption) *DirectAllocator {
	if m == nil {
		m = defaultMapper()
	}
	d := &DirectAllocator{mapper: m, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DirectAllocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	mem, err := d.mapper.Map(int(size))
	if err != nil {
		return nil, err
	}
	d.outstanding.Add(1)
	return unsafe.Pointer(&mem[0]), nil
}

func (d *DirectAllocator) Release(ptr unsafe.Pointer, size, align uintptr) {
	if ptr == nil {
		return
	}
	if err := d.mapper.Unmap(unsafe.Slice((*byte)(ptr), size)); err != nil {
		// Release has no error return; the mapping is leaked
		d.logger.Warn("direct release unmap failed",
			zap.Uintptr("addr", uintptr(ptr)),
			zap.Uintptr("size", size),
			zap.Error(err),
		)
	}
	d.outstanding.Add(-1)
}

func (d *DirectAllocator) Outstanding() int64 {
	return d.outstanding.Load()
}
