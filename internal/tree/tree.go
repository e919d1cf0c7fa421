// Package tree provides the structural view over a parsed factor: pre-order
// indexing, depth, child indices, column collection, subtree extraction, and
// subtree replacement (spec.md §3 "Operator tree", §4.2).
package tree

import (
	"factorlang/internal/ast"
	"factorlang/internal/parser"
)

// Tree is an owned, pre-order-flattened operator tree.
type Tree struct {
	root  ast.Node
	order []ast.Node // pre-order: order[0] == root
}

// New wraps an already-parsed node tree.
func New(root ast.Node) *Tree {
	return &Tree{root: root, order: flatten(root, nil)}
}

// Parse parses S-expression text into a Tree.
func Parse(text string) (*Tree, error) {
	root, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

func flatten(n ast.Node, into []ast.Node) []ast.Node {
	into = append(into, n)
	for _, c := range n.Children() {
		into = flatten(c, into)
	}
	return into
}

// Root returns the tree's root node.
func (t *Tree) Root() ast.Node { return t.root }

// Len returns the number of nodes (pre-order count).
func (t *Tree) Len() int { return len(t.order) }

// At returns the subtree rooted at pre-order index i, as a fresh owned tree
// (spec.md §4.2 `tree[i]`). It shares node pointers with the original —
// Node trees are treated as immutable, so this is safe — but is otherwise
// independent: further Replace calls on it don't affect the original.
func (t *Tree) At(i int) *Tree {
	return New(t.order[i])
}

// Depth returns 1 + max child depth; leaves have depth 1.
func (t *Tree) Depth() int { return depth(t.root) }

func depth(n ast.Node) int {
	children := n.Children()
	if len(children) == 0 {
		return 1
	}
	max := 0
	for _, c := range children {
		if d := depth(c); d > max {
			max = d
		}
	}
	return 1 + max
}

// ChildIndices returns the pre-order indices of the root's direct children.
func (t *Tree) ChildIndices() []int {
	children := t.root.Children()
	if len(children) == 0 {
		return nil
	}
	indices := make([]int, 0, len(children))
	idx := 1
	for _, c := range children {
		indices = append(indices, idx)
		idx += nodeCount(c)
	}
	return indices
}

func nodeCount(n ast.Node) int {
	count := 1
	for _, c := range n.Children() {
		count += nodeCount(c)
	}
	return count
}

// Columns returns every column name referenced in the tree, in first-seen
// pre-order, each appearing once.
func (t *Tree) Columns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range t.order {
		if col, ok := n.(*ast.ColumnRef); ok {
			if !seen[col.Name] {
				seen[col.Name] = true
				out = append(out, col.Name)
			}
		}
	}
	return out
}

// Replace returns a new Tree in which the subtree at pre-order index i is
// substituted by other's root. The original Tree is unchanged; pre-order
// indices >= i in the original are invalidated for the result (the
// replacement subtree may have a different node count).
func (t *Tree) Replace(i int, other *Tree) *Tree {
	next := 0
	var rebuild func(n ast.Node) ast.Node
	rebuild = func(n ast.Node) ast.Node {
		my := next
		next++
		if my == i {
			return other.root
		}
		op, ok := n.(*ast.Op)
		if !ok {
			return n
		}
		args := make([]ast.Node, len(op.Args))
		changed := false
		for j, c := range op.Args {
			args[j] = rebuild(c)
			if args[j] != c {
				changed = true
			}
		}
		if !changed {
			return n
		}
		return &ast.Op{Name: op.Name, Args: args}
	}
	return New(rebuild(t.root))
}

// Clone deep-copies the tree.
func (t *Tree) Clone() *Tree {
	return New(ast.Clone(t.root))
}

// Equal reports structural equality, ignoring pointer identity.
func (t *Tree) Equal(other *Tree) bool {
	return ast.Equal(t.root, other.root)
}

// Format renders the tree's canonical S-expression text (round-trips with
// Parse, spec.md §4.2).
func (t *Tree) Format() string {
	return ast.Format(t.root)
}
