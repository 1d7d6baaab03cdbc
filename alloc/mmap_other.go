//go:build !(linux || darwin || freebsd)

package alloc

func defaultMapper() Mapper {
	return HeapMapper{}
}
