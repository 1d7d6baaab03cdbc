package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(root *OrderBookNode) []int {
	var out []int
	Walk(root, func(n *OrderBookNode) {
		out = append(out, n.Order.Id)
	})
	return out
}

func buildTree(keys ...int) *OrderBookNode {
	var root *OrderBookNode
	for _, k := range keys {
		Insert(&root, &OrderBookNode{Order: Order{Id: k}})
	}
	return root
}

func TestUnlink(t *testing.T) {
	tests := []struct {
		name   string
		remove int
		want   []int
	}{
		{"leaf", 1, []int{3, 4, 5, 6, 7, 8, 9}},
		{"only right child", 6, []int{1, 3, 4, 5, 7, 8, 9}},
		{"successor is a leaf", 3, []int{1, 4, 5, 6, 7, 8, 9}},
		{"successor is right child", 8, []int{1, 3, 4, 5, 6, 7, 9}},
		{"successor deep in right subtree", 5, []int{1, 3, 4, 6, 7, 8, 9}},
		{"missing", 42, []int{1, 3, 4, 5, 6, 7, 8, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//        5
			//      /   \
			//     3     8
			//    / \   / \
			//   1   4 6   9
			//          \
			//           7
			root := buildTree(5, 3, 8, 1, 4, 6, 9, 7)
			n := Unlink(&root, tt.remove)
			if tt.remove == 42 {
				assert.Nil(t, n)
			} else {
				require.NotNil(t, n)
				assert.Equal(t, tt.remove, n.Order.Id)
				assert.Nil(t, n.Left)
				assert.Nil(t, n.Right)
			}
			assert.Equal(t, tt.want, ids(root))
		})
	}
}

func TestUnlinkRootUntilEmpty(t *testing.T) {
	root := buildTree(2, 1, 3)
	for _, id := range []int{2, 3, 1} {
		require.NotNil(t, Unlink(&root, id))
	}
	assert.Nil(t, root)
}

type recordingBook struct {
	inserted []int
	removed  []int
}

func (r *recordingBook) Insert(o Order) error { r.inserted = append(r.inserted, o.Id); return nil }
func (r *recordingBook) Remove(id int) error  { r.removed = append(r.removed, id); return nil }
func (r *recordingBook) Len() int             { return len(r.inserted) - len(r.removed) }

func TestGenerator(t *testing.T) {
	a, b := NewGenerator(7), NewGenerator(7)
	for range 100 {
		assert.Equal(t, a.GenerateOrder(), b.GenerateOrder())
	}

	g := NewGenerator(1)
	rb := &recordingBook{}
	for range 1000 {
		require.NoError(t, g.Act(rb))
	}
	assert.NotEmpty(t, rb.inserted)
	assert.GreaterOrEqual(t, rb.Len(), 0)
	for i, id := range rb.removed {
		assert.Equal(t, i+1, id, "removals are oldest first")
	}

	o := g.GenerateOrder()
	assert.GreaterOrEqual(t, o.Price, MinPrice)
	assert.Less(t, o.Price, MaxPrice)
	assert.Contains(t, []OrderSide{OrderSideBuy, OrderSideSell}, o.Side)
}
