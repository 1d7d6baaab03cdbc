package manualbook

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivam-909/sectorheap/alloc"
	"github.com/shivam-909/sectorheap/internal/orderbook"
)

func newHeap(t *testing.T, maxSectors int) *alloc.Allocator {
	t.Helper()
	a, err := alloc.New(alloc.Config{SectorSize: 4096, MaxSectors: maxSectors})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, a.Close())
	})
	return a
}

func TestManualBook_InsertRemove(t *testing.T) {
	heap := newHeap(t, 4)
	ob := New(heap)

	for id := 1; id <= 100; id++ {
		require.NoError(t, ob.Insert(orderbook.Order{Id: id, Side: orderbook.OrderSideBuy, Price: 9500, Qty: 1}))
	}
	assert.Equal(t, 100, ob.Len())
	assert.Equal(t, int64(100), heap.Outstanding())

	for id := 1; id <= 100; id += 2 {
		require.NoError(t, ob.Remove(id))
	}
	assert.Equal(t, 50, ob.Len())
	assert.Equal(t, int64(50), heap.Outstanding())

	assert.ErrorIs(t, ob.Remove(1), orderbook.ErrNotFound)

	ob.Close()
	assert.Zero(t, ob.Len())
	assert.Zero(t, heap.Outstanding())
	assert.Zero(t, heap.Stats().UsedChunks)
}

func TestManualBook_ExhaustionSurfaces(t *testing.T) {
	heap := newHeap(t, 1)
	ob := New(heap)
	defer ob.Close()

	for id := 1; id <= alloc.SlotsPerSector; id++ {
		require.NoError(t, ob.Insert(orderbook.Order{Id: id}))
	}
	err := ob.Insert(orderbook.Order{Id: 1000})
	assert.ErrorIs(t, err, alloc.ErrExhausted)
	assert.Equal(t, alloc.SlotsPerSector, ob.Len())

	require.NoError(t, ob.Remove(3))
	assert.NoError(t, ob.Insert(orderbook.Order{Id: 1000}))
}

func TestManualBook_RandomWorkload(t *testing.T) {
	heap := newHeap(t, 64)
	ob := New(heap)
	gen := orderbook.NewGenerator(42)

	for range 20000 {
		require.NoError(t, gen.Act(ob))
	}
	assert.Equal(t, int64(ob.Len()), heap.Outstanding())

	ob.Close()
	assert.Zero(t, heap.Outstanding())
}

func TestManualBook_Print(t *testing.T) {
	heap := newHeap(t, 1)
	ob := New(heap)
	defer ob.Close()

	require.NoError(t, ob.Insert(orderbook.Order{Id: 1, Side: orderbook.OrderSideBuy, Price: 9100, Qty: 3}))
	require.NoError(t, ob.Insert(orderbook.Order{Id: 2, Side: orderbook.OrderSideSell, Price: 9900, Qty: 5}))

	var buf bytes.Buffer
	ob.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "Price: 9100, Quantity: 3, ID: 1")
	assert.Contains(t, out, "Price: 9900, Quantity: 5, ID: 2")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Sells:")), bytes.Index(buf.Bytes(), []byte("Buys:")))
}
