package dialect

import "github.com/roach88/plansql/internal/queryir"

var compareTokens = map[queryir.CompareOp]string{
	queryir.OpEqual:        "=",
	queryir.OpNotEqual:     "!=",
	queryir.OpLess:         "<",
	queryir.OpGreater:      ">",
	queryir.OpLessEqual:    "<=",
	queryir.OpGreaterEqual: ">=",
}

var arithTokens = map[queryir.ArithOp]string{
	queryir.OpPlus:     "+",
	queryir.OpMinus:    "-",
	queryir.OpMultiply: "*",
	queryir.OpDivide:   "/",
	queryir.OpModulo:   "%",
	queryir.OpNegate:   "-",
}

// MySQL has no FULL OUTER JOIN; it is absent on purpose.
var joinTokens = map[queryir.JoinKind]string{
	queryir.JoinInner:     "INNER JOIN",
	queryir.JoinLeftOuter: "LEFT OUTER JOIN",
	queryir.JoinCross:     "CROSS JOIN",
}

// CompareToken returns the operator token for a comparison.
func CompareToken(op queryir.CompareOp) (string, bool) {
	t, ok := compareTokens[op]
	return t, ok
}

// ArithToken returns the operator token for an arithmetic operator.
func ArithToken(op queryir.ArithOp) (string, bool) {
	t, ok := arithTokens[op]
	return t, ok
}

// JoinToken returns the join keyword for kind. ok is false for join kinds
// MySQL cannot express.
func JoinToken(kind queryir.JoinKind) (string, bool) {
	t, ok := joinTokens[kind]
	return t, ok
}
