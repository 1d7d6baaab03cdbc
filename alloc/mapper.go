package alloc

// Mapper is the operating-system mapping service sectors are backed by.
//
// Map returns an anonymous, zero-filled, read/write region of exactly size
// bytes. Unmap releases a region previously returned by Map; it must be
// passed a slice with the same base and length.
type Mapper interface {
	Map(size int) ([]byte, error)
	Unmap(mem []byte) error
}

// HeapMapper backs sectors with Go heap memory. It is the fallback on
// platforms without anonymous mappings and is handy in tests.
type HeapMapper struct{}

func (HeapMapper) Map(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (HeapMapper) Unmap([]byte) error {
	return nil
}
