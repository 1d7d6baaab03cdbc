package orderbook

// Insert links nn into the tree rooted at *root, keyed by Order.Id.
// Duplicates go to the right.
func Insert(root **OrderBookNode, nn *OrderBookNode) {
	if *root == nil {
		*root = nn
		return
	}

	curr := *root
	for {
		if nn.Order.Id < curr.Order.Id {
			if curr.Left == nil {
				curr.Left = nn
				return
			}
			curr = curr.Left
		} else {
			if curr.Right == nil {
				curr.Right = nn
				return
			}
			curr = curr.Right
		}
	}
}

// Unlink removes the node with the given id from the tree rooted at *root
// and returns it, or nil if no such node exists. If the node has two
// children its in-order successor takes its place.
func Unlink(root **OrderBookNode, id int) *OrderBookNode {
	parent, node, isLeft := find(*root, id)
	if node == nil {
		return nil
	}

	var replacement *OrderBookNode

	switch {
	case node.Left == nil:
		replacement = node.Right
	case node.Right == nil:
		replacement = node.Left
	default:
		succParent, successor := findSuccessor(node.Right)

		// detach the successor from deeper in the right subtree
		if succParent != nil {
			succParent.Left = successor.Right
			successor.Right = node.Right
		}
		successor.Left = node.Left
		replacement = successor
	}

	if parent == nil {
		*root = replacement
	} else if isLeft {
		parent.Left = replacement
	} else {
		parent.Right = replacement
	}

	node.Left, node.Right = nil, nil
	return node
}

// Walk visits nodes in id order.
func Walk(n *OrderBookNode, fn func(*OrderBookNode)) {
	if n == nil {
		return
	}
	Walk(n.Left, fn)
	fn(n)
	Walk(n.Right, fn)
}

// find returns (parent, node, isLeftChild) for id.
func find(root *OrderBookNode, id int) (*OrderBookNode, *OrderBookNode, bool) {
	var (
		parent  *OrderBookNode
		current = root
		isLeft  bool
	)

	for current != nil {
		if id == current.Order.Id {
			return parent, current, isLeft
		}
		parent = current
		if id < current.Order.Id {
			current = current.Left
			isLeft = true
		} else {
			current = current.Right
			isLeft = false
		}
	}
	return nil, nil, false
}

// findSuccessor returns (parent, successor) for the leftmost node in root.
// parent is nil when root itself is the successor.
func findSuccessor(root *OrderBookNode) (*OrderBookNode, *OrderBookNode) {
	var (
		parent *OrderBookNode
		curr   = root
	)
	for curr.Left != nil {
		parent = curr
		curr = curr.Left
	}
	return parent, curr
}
