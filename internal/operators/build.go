package operators

import (
	"fmt"
	"math"

	"factorlang/internal/ast"
)

// Build compiles a parsed operator tree into an instantiated, stateful
// evaluator graph (spec.md §4.4 "Factor runtime"). The tree is assumed
// already structurally valid (the parser enforces arity and constant-window
// preconditions); Build only fails defensively on an operator name outside
// the catalog, which parser.Parse would already have rejected.
func Build(n ast.Node) (Evaluator, error) {
	switch v := n.(type) {
	case *ast.Constant:
		return newConstantEvaluator(v.Value), nil
	case *ast.ColumnRef:
		return newColumnEvaluator(v.Name), nil
	case *ast.Op:
		return buildOp(v)
	default:
		return nil, fmt.Errorf("operators: unknown node type %T", n)
	}
}

func buildChildren(args []ast.Node) ([]Evaluator, error) {
	out := make([]Evaluator, len(args))
	for i, a := range args {
		e, err := Build(a)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func constInt(n ast.Node) int {
	return int(n.(*ast.Constant).Value)
}

func buildOp(v *ast.Op) (Evaluator, error) {
	switch v.Name {
	case "+":
		c, err := buildChildren(v.Args)
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return a[0] + a[1] }, c...), nil
	case "-":
		c, err := buildChildren(v.Args)
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return a[0] - a[1] }, c...), nil
	case "*":
		c, err := buildChildren(v.Args)
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return a[0] * a[1] }, c...), nil
	case "/":
		c, err := buildChildren(v.Args)
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return a[0] / a[1] }, c...), nil

	case "^":
		exp := float64(constInt(v.Args[0]))
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return math.Pow(a[0], exp) }, child), nil
	case "SPow":
		exp := float64(constInt(v.Args[0]))
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 {
			return sign(a[0]) * math.Pow(math.Abs(a[0]), exp)
		}, child), nil

	case "Neg":
		child, err := Build(v.Args[0])
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return -a[0] }, child), nil
	case "Abs":
		child, err := Build(v.Args[0])
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return math.Abs(a[0]) }, child), nil
	case "Sign":
		child, err := Build(v.Args[0])
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return sign(a[0]) }, child), nil
	case "LogAbs":
		child, err := Build(v.Args[0])
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return math.Log(math.Abs(a[0])) }, child), nil

	case "If":
		c, err := buildChildren(v.Args)
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 {
			if a[0] > 0 {
				return a[1]
			}
			return a[2]
		}, c...), nil

	case "And":
		c, err := buildChildren(v.Args)
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 {
			return boolToFloat(truthy(a[0]) && truthy(a[1]))
		}, c...), nil
	case "Or":
		c, err := buildChildren(v.Args)
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 {
			return boolToFloat(truthy(a[0]) || truthy(a[1]))
		}, c...), nil
	case "!":
		child, err := Build(v.Args[0])
		if err != nil {
			return nil, err
		}
		return newPointwise(func(a []float64) float64 { return boolToFloat(!truthy(a[0])) }, child), nil

	case "<":
		return buildComparison(v.Args, func(a, b float64) bool { return a < b })
	case "<=":
		return buildComparison(v.Args, func(a, b float64) bool { return a <= b })
	case ">":
		return buildComparison(v.Args, func(a, b float64) bool { return a > b })
	case ">=":
		return buildComparison(v.Args, func(a, b float64) bool { return a >= b })
	case "==":
		return buildComparison(v.Args, func(a, b float64) bool { return a == b })

	case "TSSum", "TSMean":
		w := constInt(v.Args[0])
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newTSSum(child, w, v.Name == "TSMean"), nil
	case "TSStd":
		w := constInt(v.Args[0])
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newTSStd(child, w), nil
	case "TSSkew":
		w := constInt(v.Args[0])
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newTSSkew(child, w), nil
	case "TSMin", "TSMax", "TSArgMin", "TSArgMax":
		w := constInt(v.Args[0])
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		isMax := v.Name == "TSMax" || v.Name == "TSArgMax"
		argOut := v.Name == "TSArgMin" || v.Name == "TSArgMax"
		return newTSExtrema(child, w, isMax, argOut), nil
	case "TSRank":
		w := constInt(v.Args[0])
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newTSRank(child, w), nil
	case "Delay":
		lag := constInt(v.Args[0])
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newDelay(child, lag), nil
	case "TSLogReturn":
		lag := constInt(v.Args[0])
		child, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		return newTSLogReturn(child, lag), nil
	case "TSCorrelation":
		w := constInt(v.Args[0])
		x, err := Build(v.Args[1])
		if err != nil {
			return nil, err
		}
		y, err := Build(v.Args[2])
		if err != nil {
			return nil, err
		}
		return newTSCorrelation(x, y, w), nil

	default:
		return nil, fmt.Errorf("operators: unknown operator %q", v.Name)
	}
}

func buildComparison(args []ast.Node, cmp func(a, b float64) bool) (Evaluator, error) {
	c, err := buildChildren(args)
	if err != nil {
		return nil, err
	}
	return newPointwise(func(a []float64) float64 { return boolToFloat(cmp(a[0], a[1])) }, c...), nil
}
