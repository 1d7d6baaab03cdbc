// Package workload drives allocators with concurrent allocate/release
// cycles and checks that no two live allocations share memory.
package workload

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/shivam-909/sectorheap/alloc"
)

// ErrOverlap reports two live allocations observed on the same memory.
var ErrOverlap = errors.New("workload: overlapping allocations")

type StressConfig struct {
	Threads    int
	Iterations int
	Size       uintptr
	Align      uintptr
}

type StressResult struct {
	Allocs   int64
	Failures int64
}

// Stress runs Threads goroutines, each performing Iterations allocate/release
// pairs of Size bytes. Every allocation is stamped with a pattern unique to
// its owner and verified before release. Allocation failures caused by
// exhaustion are counted, not fatal.
func Stress(ctx context.Context, a alloc.Interface, cfg StressConfig) (StressResult, error) {
	if cfg.Threads <= 0 || cfg.Iterations <= 0 || cfg.Size == 0 {
		return StressResult{}, fmt.Errorf("workload: bad stress config %+v", cfg)
	}
	if cfg.Align == 0 {
		cfg.Align = 1
	}

	var (
		owners   sync.Map // uintptr -> owner id
		allocs   atomic.Int64
		failures atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	for t := range cfg.Threads {
		g.Go(func() error {
			for k := range cfg.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}

				p, err := a.Allocate(cfg.Size, cfg.Align)
				if errors.Is(err, alloc.ErrExhausted) {
					failures.Add(1)
					continue
				}
				if err != nil {
					return err
				}
				allocs.Add(1)

				key := uintptr(p)
				if prev, loaded := owners.LoadOrStore(key, t); loaded {
					return fmt.Errorf("%w: %#x held by %d and %d", ErrOverlap, key, prev, t)
				}

				buf := unsafe.Slice((*byte)(p), cfg.Size)
				seed := stamp(t, k)
				for i := range buf {
					buf[i] = seed + byte(i)
				}
				runtime.Gosched()
				for i := range buf {
					if buf[i] != seed+byte(i) {
						return fmt.Errorf("%w: byte %d of %#x clobbered", ErrOverlap, i, key)
					}
				}

				owners.Delete(key)
				a.Release(p, cfg.Size, cfg.Align)
			}
			return nil
		})
	}

	err := g.Wait()
	return StressResult{
		Allocs:   allocs.Load(),
		Failures: failures.Load(),
	}, err
}

func stamp(thread, iter int) byte {
	return byte(thread*131 + iter*7 + 1)
}
