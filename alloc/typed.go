package alloc

import (
	"fmt"
	"unsafe"
)

func sizeAlign[T any]() (uintptr, uintptr) {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		size = 1
	}
	return size, unsafe.Alignof(zero)
}

// Allocate returns a *T backed by a. The memory is outside the Go heap: T
// must not hold pointers into the Go heap, since the collector does not scan
// it.
func Allocate[T any](a Interface) (*T, error) {
	size, align := sizeAlign[T]()
	p, err := a.Allocate(size, align)
	if err != nil {
		return nil, err
	}
	return (*T)(p), nil
}

// Free releases a value obtained from Allocate with the same allocator.
func Free[T any](a Interface, p *T) {
	if p == nil {
		return
	}
	size, align := sizeAlign[T]()
	a.Release(unsafe.Pointer(p), size, align)
}

// AllocateSlice returns a slice of length n backed by a.
func AllocateSlice[T any](a Interface, n int) ([]T, error) {
	if n <= 0 {
		return nil, ErrZeroSize
	}
	size, align := sizeAlign[T]()
	if uintptr(n) > ^uintptr(0)/size {
		return nil, fmt.Errorf("%w: %d elements of %d bytes", ErrTooLarge, n, size)
	}
	p, err := a.Allocate(size*uintptr(n), align)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(p), n), nil
}

// FreeSlice releases a slice obtained from AllocateSlice. It must be passed
// the slice as returned, not a reslice of it.
func FreeSlice[T any](a Interface, s []T) {
	if len(s) == 0 {
		return
	}
	size, align := sizeAlign[T]()
	a.Release(unsafe.Pointer(unsafe.SliceData(s)), size*uintptr(len(s)), align)
}
