package standardbook

import (
	"github.com/shivam-909/sectorheap/internal/orderbook"
)

// standardbook is the Go-heap baseline for the manual book.
type standardbook struct {
	root *orderbook.OrderBookNode
	size int
}

func New() orderbook.OrderBook {
	return &standardbook{}
}

func (b *standardbook) Insert(o orderbook.Order) error {
	orderbook.Insert(&b.root, &orderbook.OrderBookNode{Order: o})
	b.size++
	return nil
}

func (b *standardbook) Remove(id int) error {
	if orderbook.Unlink(&b.root, id) == nil {
		return orderbook.ErrNotFound
	}
	b.size--
	return nil
}

func (b *standardbook) Len() int {
	return b.size
}
