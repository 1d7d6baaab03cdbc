package alloc

import "errors"

var (
	// ErrExhausted indicates that no active sector had room and no new sector
	// could be activated. Callers should treat it like out-of-memory.
	ErrExhausted = errors.New("alloc: sector pool exhausted")

	// ErrTooLarge indicates a request larger than one sector's payload.
	ErrTooLarge = errors.New("alloc: request exceeds sector size")

	// ErrZeroSize indicates a zero-byte request.
	ErrZeroSize = errors.New("alloc: zero-size request")

	// ErrBadAlign indicates an alignment that is not a power of two or is
	// stronger than the chunk granularity.
	ErrBadAlign = errors.New("alloc: unsupported alignment")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")

	// ErrBadConfig indicates an invalid sector geometry.
	ErrBadConfig = errors.New("alloc: invalid config")
)

var errAlreadyMapped = errors.New("alloc: sector already mapped")
