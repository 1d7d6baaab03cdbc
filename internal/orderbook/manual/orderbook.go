package manualbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/shivam-909/sectorheap/alloc"
	"github.com/shivam-909/sectorheap/internal/orderbook"
)

// manualbook implements orderbook.OrderBook using a BST whose nodes come
// from a manual allocator instead of the Go heap.
type manualbook struct {
	heap alloc.Interface
	tree *orderbook.OrderBookNode
	size int
}

// Book is the manual order book. Close returns every node to the allocator.
type Book interface {
	orderbook.OrderBook
	Print(w io.Writer)
	Close()
}

func New(heap alloc.Interface) Book {
	return &manualbook{heap: heap}
}

func (b *manualbook) newNode(o orderbook.Order) (*orderbook.OrderBookNode, error) {
	node, err := alloc.Allocate[orderbook.OrderBookNode](b.heap)
	if err != nil {
		return nil, err
	}
	node.Order = o
	node.Left = nil
	node.Right = nil
	return node, nil
}

func (b *manualbook) Insert(o orderbook.Order) error {
	nn, err := b.newNode(o)
	if err != nil {
		return fmt.Errorf("insert order %d: %w", o.Id, err)
	}
	orderbook.Insert(&b.tree, nn)
	b.size++
	return nil
}

func (b *manualbook) Remove(id int) error {
	node := orderbook.Unlink(&b.tree, id)
	if node == nil {
		return orderbook.ErrNotFound
	}
	alloc.Free(b.heap, node)
	b.size--
	return nil
}

func (b *manualbook) Len() int {
	return b.size
}

func (b *manualbook) Close() {
	var free func(n *orderbook.OrderBookNode)
	free = func(n *orderbook.OrderBookNode) {
		if n == nil {
			return
		}
		free(n.Left)
		free(n.Right)
		alloc.Free(b.heap, n)
	}
	free(b.tree)
	b.tree = nil
	b.size = 0
}

// Print writes all orders grouped by side, highest id first.
func (b *manualbook) Print(w io.Writer) {
	var buyOrders, sellOrders []orderbook.Order

	orderbook.Walk(b.tree, func(n *orderbook.OrderBookNode) {
		if n.Order.Side == orderbook.OrderSideBuy {
			buyOrders = append(buyOrders, n.Order)
		} else {
			sellOrders = append(sellOrders, n.Order)
		}
	})

	fmt.Fprintln(w, "\nOrder Book")
	fmt.Fprintln(w, strings.Repeat("-", 40))

	fmt.Fprintln(w, "Sells:")
	for i := len(sellOrders) - 1; i >= 0; i-- {
		o := sellOrders[i]
		fmt.Fprintf(w, "Price: %d, Quantity: %d, ID: %d\n", o.Price, o.Qty, o.Id)
	}

	fmt.Fprintln(w, strings.Repeat("-", 40))

	fmt.Fprintln(w, "Buys:")
	for i := len(buyOrders) - 1; i >= 0; i-- {
		o := buyOrders[i]
		fmt.Fprintf(w, "Price: %d, Quantity: %d, ID: %d\n", o.Price, o.Qty, o.Id)
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}
