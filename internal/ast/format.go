package ast

import (
	"strconv"
	"strings"
)

// Format renders a node as its canonical S-expression text. Round-trips
// through parser.Parse for any tree Format can produce (spec.md §4.2).
func Format(n Node) string {
	var sb strings.Builder
	format(n, &sb)
	return sb.String()
}

func format(n Node, sb *strings.Builder) {
	switch v := n.(type) {
	case *Constant:
		sb.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
	case *ColumnRef:
		sb.WriteByte(':')
		sb.WriteString(v.Name)
	case *Op:
		sb.WriteByte('(')
		sb.WriteString(v.Name)
		for _, arg := range v.Args {
			sb.WriteByte(' ')
			format(arg, sb)
		}
		sb.WriteByte(')')
	}
}
