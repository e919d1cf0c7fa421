package ast

// Kind classifies how an operator's output relates to its input length:
// Pointwise ops need only the current row of each child; Window ops need
// a trailing window of the size named by their leading constant argument.
type Kind int

const (
	Pointwise Kind = iota
	Window
)

// OpSpec describes one operator's static shape, per spec.md §4.1: its
// arity, whether (and where) a constant integer argument is required, and
// whether it is pointwise or a window operator.
type OpSpec struct {
	Name        string
	Arity       int
	ConstArg    int // index of the required Constant-integer argument, or -1
	ConstMin    int // minimum legal value for that constant
	Kind        Kind
}

// Catalog is the full operator table from spec.md §4.1.
var Catalog = map[string]OpSpec{
	"+": {"+", 2, -1, 0, Pointwise},
	"-": {"-", 2, -1, 0, Pointwise},
	"*": {"*", 2, -1, 0, Pointwise},
	"/": {"/", 2, -1, 0, Pointwise},

	"^":    {"^", 2, 0, 0, Pointwise},
	"SPow": {"SPow", 2, 0, 0, Pointwise},

	"Neg":    {"Neg", 1, -1, 0, Pointwise},
	"Abs":    {"Abs", 1, -1, 0, Pointwise},
	"Sign":   {"Sign", 1, -1, 0, Pointwise},
	"LogAbs": {"LogAbs", 1, -1, 0, Pointwise},

	"If": {"If", 3, -1, 0, Pointwise},

	"And": {"And", 2, -1, 0, Pointwise},
	"Or":  {"Or", 2, -1, 0, Pointwise},
	"!":   {"!", 1, -1, 0, Pointwise},

	"<":  {"<", 2, -1, 0, Pointwise},
	"<=": {"<=", 2, -1, 0, Pointwise},
	">":  {">", 2, -1, 0, Pointwise},
	">=": {">=", 2, -1, 0, Pointwise},
	"==": {"==", 2, -1, 0, Pointwise},

	"TSSum":    {"TSSum", 2, 0, 1, Window},
	"TSMean":   {"TSMean", 2, 0, 1, Window},
	"TSMin":    {"TSMin", 2, 0, 1, Window},
	"TSMax":    {"TSMax", 2, 0, 1, Window},
	"TSArgMin": {"TSArgMin", 2, 0, 1, Window},
	"TSArgMax": {"TSArgMax", 2, 0, 1, Window},
	"TSStd":    {"TSStd", 2, 0, 1, Window},
	"TSSkew":   {"TSSkew", 2, 0, 1, Window},
	"TSRank":   {"TSRank", 2, 0, 1, Window},

	"Delay": {"Delay", 2, 0, 1, Window},

	"TSLogReturn":   {"TSLogReturn", 2, 0, 1, Window},
	"TSCorrelation": {"TSCorrelation", 3, 0, 1, Window},
}
