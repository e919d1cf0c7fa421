package ast

// Equal reports whether two nodes are structurally identical (same shape,
// same constant values, same column names, same operator names) regardless
// of pointer identity.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case *Constant:
		bv, ok := b.(*Constant)
		return ok && av.Value == bv.Value
	case *ColumnRef:
		bv, ok := b.(*ColumnRef)
		return ok && av.Name == bv.Name
	case *Op:
		bv, ok := b.(*Op)
		if !ok || av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Clone deep-copies a node tree.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Constant:
		c := *v
		return &c
	case *ColumnRef:
		c := *v
		return &c
	case *Op:
		args := make([]Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = Clone(a)
		}
		return &Op{Name: v.Name, Args: args}
	default:
		return n
	}
}
