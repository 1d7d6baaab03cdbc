package orderbook

import (
	"errors"
	"math/rand/v2"
)

type OrderSide int

const (
	OrderSideBuy  OrderSide = 1
	OrderSideSell OrderSide = 2
	MaxPrice                = 10000
	MinPrice                = 9000
)

var ErrNotFound = errors.New("order not found")

type Order struct {
	Id    int
	Side  OrderSide
	Price int
	Qty   int
}

type OrderBook interface {
	Insert(order Order) error
	Remove(id int) error
	Len() int
}

// OrderBookNode is a BST node keyed by Order.Id. Manual books place nodes
// outside the Go heap, so it must only point at other nodes of the same book.
type OrderBookNode struct {
	Order Order
	Left  *OrderBookNode
	Right *OrderBookNode
}

// Generator produces a random stream of inserts and removals. Removals
// target the oldest ids first.
type Generator struct {
	rnd      *rand.Rand
	counter  int
	removals int
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rnd:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		counter:  1,
		removals: 1,
	}
}

func (g *Generator) randomBool() bool {
	return g.rnd.Int()%2 == 0
}

func (g *Generator) randomBoolDistribution(truePercentage int) bool {
	return g.rnd.IntN(100) < truePercentage
}

func (g *Generator) randomSide() OrderSide {
	if g.randomBool() {
		return OrderSideBuy
	}
	return OrderSideSell
}

func (g *Generator) GenerateOrder() Order {
	side := g.randomSide()
	price := g.rnd.IntN(MaxPrice-MinPrice) + MinPrice
	qty := g.rnd.IntN(10) + 1
	id := g.counter
	g.counter++
	return Order{id, side, price, qty}
}

// Act applies one random operation to ob. Failed inserts (for instance on
// allocator exhaustion) are returned; removing an id that never made it into
// the book is not an error.
func (g *Generator) Act(ob OrderBook) error {
	if g.randomBoolDistribution(50) {
		return ob.Insert(g.GenerateOrder())
	}
	if g.removals >= g.counter {
		return nil
	}
	err := ob.Remove(g.removals)
	g.removals++
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
