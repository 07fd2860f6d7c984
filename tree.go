// Package ostree provides an order-statistics binary search tree
// supporting insertion, deletion, rank/select in O(depth),
// and percentile-range queries over a set of distinct ordered values.
//
// The tree is not self-balancing and not safe for concurrent use;
// callers must serialize mutations.
package ostree

import (
	"github.com/pingcap/errors"
	"golang.org/x/exp/constraints"
)

// Node is a single entry of a Tree.
// size is the number of nodes in the subtree rooted here, including itself.
type Node[K constraints.Ordered, V any] struct {
	key   K
	value V
	size  int
	left  *Node[K, V]
	right *Node[K, V]
}

// Key returns the key stored in n.
func (n *Node[K, V]) Key() K {
	return n.key
}

// Value returns the value stored in n.
func (n *Node[K, V]) Value() V {
	return n.value
}

// Size returns the number of nodes in the subtree rooted at n.
// A nil node has size 0.
func (n *Node[K, V]) Size() int {
	if n == nil {
		return 0
	}
	return n.size
}

// Left returns the left child of n, or nil.
func (n *Node[K, V]) Left() *Node[K, V] {
	if n == nil {
		return nil
	}
	return n.left
}

// Right returns the right child of n, or nil.
func (n *Node[K, V]) Right() *Node[K, V] {
	if n == nil {
		return nil
	}
	return n.right
}

// Tree is a binary search tree augmented with subtree sizes.
// Keys are unique.
type Tree[K constraints.Ordered, V any] struct {
	root  *Node[K, V]
	count int
}

// New returns an empty Tree.
func New[K constraints.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{}
}

// Root returns the root node, or nil if the tree is empty.
func (t *Tree[K, V]) Root() *Node[K, V] {
	return t.root
}

// Len returns the number of keys in t.
func (t *Tree[K, V]) Len() int {
	return t.count
}

// Contains reports whether key is stored in t.
func (t *Tree[K, V]) Contains(key K) bool {
	return t.find(key) != nil
}

// Lookup returns the value stored under key.
func (t *Tree[K, V]) Lookup(key K) (V, error) {
	n := t.find(key)
	if n == nil {
		var zero V
		return zero, errors.Annotatef(ErrKeyNotFound, "lookup %v", key)
	}
	return n.value, nil
}

func (t *Tree[K, V]) find(key K) *Node[K, V] {
	cur := t.root
	for cur != nil {
		switch {
		case key < cur.key:
			cur = cur.left
		case key > cur.key:
			cur = cur.right
		default:
			return cur
		}
	}
	return nil
}

// Insert stores value under key.
// If key is already present, Insert returns ErrDuplicateKey and t is unchanged.
func (t *Tree[K, V]) Insert(key K, value V) error {
	if isNaN(key) {
		return errors.Annotatef(ErrUnorderedKey, "insert %v", key)
	}
	// Check first so that no size counter is touched on failure.
	if t.find(key) != nil {
		return errors.Annotatef(ErrDuplicateKey, "insert %v", key)
	}
	t.root = insertHelper(t.root, key, value)
	t.count++
	return nil
}

// insertHelper returns the new root of the subtree. key must be absent.
func insertHelper[K constraints.Ordered, V any](cur *Node[K, V], key K, value V) *Node[K, V] {
	if cur == nil {
		return &Node[K, V]{key: key, value: value, size: 1}
	}
	cur.size++
	if key < cur.key {
		cur.left = insertHelper(cur.left, key, value)
	} else {
		cur.right = insertHelper(cur.right, key, value)
	}
	return cur
}

// Delete removes key from t.
// If key is absent, Delete returns ErrKeyNotFound and t is unchanged.
func (t *Tree[K, V]) Delete(key K) error {
	if t.find(key) == nil {
		return errors.Annotatef(ErrKeyNotFound, "delete %v", key)
	}
	t.root = deleteHelper(t.root, key)
	t.count--
	return nil
}

// deleteHelper returns the new root of the subtree. key must be present.
func deleteHelper[K constraints.Ordered, V any](cur *Node[K, V], key K) *Node[K, V] {
	cur.size--
	switch {
	case key < cur.key:
		cur.left = deleteHelper(cur.left, key)
	case key > cur.key:
		cur.right = deleteHelper(cur.right, key)
	default:
		if cur.left == nil {
			return cur.right
		}
		if cur.right == nil {
			return cur.left
		}
		// Two children: pull the successor up, then unlink it from the
		// right subtree. cur.size was already decremented above.
		succ := minNode(cur.right)
		cur.key, cur.value = succ.key, succ.value
		cur.right = deleteHelper(cur.right, succ.key)
	}
	return cur
}

// Min returns the node with the smallest key in the subtree rooted at
// subtreeRoot, or nil if subtreeRoot is nil.
func (t *Tree[K, V]) Min(subtreeRoot *Node[K, V]) *Node[K, V] {
	return minNode(subtreeRoot)
}

// Max returns the node with the largest key in the subtree rooted at
// subtreeRoot, or nil if subtreeRoot is nil.
func (t *Tree[K, V]) Max(subtreeRoot *Node[K, V]) *Node[K, V] {
	if subtreeRoot == nil {
		return nil
	}
	cur := subtreeRoot
	for cur.right != nil {
		cur = cur.right
	}
	return cur
}

func minNode[K constraints.Ordered, V any](cur *Node[K, V]) *Node[K, V] {
	if cur == nil {
		return nil
	}
	for cur.left != nil {
		cur = cur.left
	}
	return cur
}

// Successor returns the node with the smallest key greater than node's key
// within node's own subtree, i.e. the minimum of its right subtree.
// It returns nil if node has no right child.
func (t *Tree[K, V]) Successor(node *Node[K, V]) *Node[K, V] {
	if node == nil || node.right == nil {
		return nil
	}
	return minNode(node.right)
}

// Select returns the node holding the k-th smallest key (1-indexed)
// in the subtree rooted at subtreeRoot.
// It returns ErrRankOutOfRange unless 1 <= k <= subtreeRoot.Size().
func (t *Tree[K, V]) Select(k int, subtreeRoot *Node[K, V]) (*Node[K, V], error) {
	if k < 1 || k > subtreeRoot.Size() {
		return nil, errors.Annotatef(ErrRankOutOfRange, "select %d of %d", k, subtreeRoot.Size())
	}
	cur := subtreeRoot
	for {
		lsize := cur.left.Size()
		switch {
		case k == lsize+1:
			return cur, nil
		case k <= lsize:
			cur = cur.left
		default:
			k -= lsize + 1
			cur = cur.right
		}
	}
}

// Rank returns the 1-indexed position of key in ascending key order.
func (t *Tree[K, V]) Rank(key K) (int, error) {
	rank := 0
	cur := t.root
	for cur != nil {
		switch {
		case key < cur.key:
			cur = cur.left
		case key > cur.key:
			rank += cur.left.Size() + 1
			cur = cur.right
		default:
			return rank + cur.left.Size() + 1, nil
		}
	}
	return 0, errors.Annotatef(ErrKeyNotFound, "rank %v", key)
}

// Ascend calls fn for every entry in ascending key order
// until fn returns false.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) {
	stack := make([]*Node[K, V], 0, 32)
	cur := t.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur.key, cur.value) {
			return
		}
		cur = cur.right
	}
}

// Keys returns all keys in ascending order.
func (t *Tree[K, V]) Keys() []K {
	ret := make([]K, 0, t.count)
	t.Ascend(func(key K, _ V) bool {
		ret = append(ret, key)
		return true
	})
	return ret
}

// isNaN reports whether key is a floating-point NaN, the only Ordered
// value that breaks the total order.
func isNaN[K constraints.Ordered](key K) bool {
	return key != key
}

// preorder calls fn for every node, parents before children.
func (t *Tree[K, V]) preorder(fn func(n *Node[K, V])) {
	if t.root == nil {
		return
	}
	stack := []*Node[K, V]{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		if n.right != nil {
			stack = append(stack, n.right)
		}
		if n.left != nil {
			stack = append(stack, n.left)
		}
	}
}
