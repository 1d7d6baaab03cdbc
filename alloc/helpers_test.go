package alloc

import (
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type failMapper struct {
	err error
}

func (f failMapper) Map(int) ([]byte, error) { return nil, f.err }
func (f failMapper) Unmap([]byte) error      { return f.err }

// countingMapper records how many mappings are live.
type countingMapper struct {
	Mapper
	maps   atomic.Int64
	unmaps atomic.Int64
}

func newCountingMapper() *countingMapper {
	return &countingMapper{Mapper: defaultMapper()}
}

func (c *countingMapper) Map(size int) ([]byte, error) {
	mem, err := c.Mapper.Map(size)
	if err == nil {
		c.maps.Add(1)
	}
	return mem, err
}

func (c *countingMapper) Unmap(mem []byte) error {
	c.unmaps.Add(1)
	return c.Mapper.Unmap(mem)
}

func (c *countingMapper) live() int64 {
	return c.maps.Load() - c.unmaps.Load()
}

// hookMapper runs onMap after every successful mapping.
type hookMapper struct {
	*countingMapper
	onMap func()
}

func (h hookMapper) Map(size int) ([]byte, error) {
	mem, err := h.countingMapper.Map(size)
	if err == nil && h.onMap != nil {
		h.onMap()
	}
	return mem, err
}

func newTestAllocator(t testing.TB, cfg Config, opts ...Option) *Allocator {
	t.Helper()
	a, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, a.Close())
	})
	return a
}

func mustAllocate(t testing.TB, a Interface, size, align uintptr) unsafe.Pointer {
	t.Helper()
	p, err := a.Allocate(size, align)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func distance(from, to unsafe.Pointer) uintptr {
	return uintptr(to) - uintptr(from)
}

// assertNoViewers checks that no probe left a view behind.
func assertNoViewers(t testing.TB, a *Allocator) {
	t.Helper()
	for i := range a.pool {
		require.Zero(t, a.pool[i].viewers.Load(), "sector %d viewers", i)
	}
}

// activeHandles returns the published pool indexes in slot order.
func (a *Allocator) activeHandles() []int {
	n := int(a.numActive.Load())
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if h := a.active[i].Load(); h != 0 {
			out = append(out, int(h-1))
		}
	}
	return out
}
