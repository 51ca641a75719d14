package querysql

import (
	"strings"

	"github.com/roach88/plansql/internal/fragment"
	"github.com/roach88/plansql/internal/queryir"
)

// tryPromoteToLike recognises the canonical shapes of StartsWith, EndsWith
// and Contains over a constant pattern and renders them as LIKE:
//
//	IndexOf(p, x) = 1                    x LIKE 'p%'
//	IndexOf(Reverse(p), Reverse(x)) = 1  x LIKE '%p'
//	Right(x, Length(p)) = p              x LIKE '%p'
//	IndexOf(p, x) > 0                    x LIKE '%p%'
//
// Patterns holding LIKE wildcards or the escape character are left alone,
// as is anything not built from a literal string constant.
func (t *translation) tryPromoteToLike(left, right queryir.Node, op string) (fragment.Fragment, bool, error) {
	var (
		arg     queryir.Node
		pattern string
	)
	switch op {
	case "=":
		if p, x, ok := matchStartsWith(left, right); ok {
			arg, pattern = x, p+"%"
		} else if p, x, ok := matchEndsWith(left, right); ok {
			arg, pattern = x, "%"+p
		} else {
			return nil, false, nil
		}
	case ">":
		p, x, ok := matchIndexOf(left)
		if !ok || !isIntConstant(right, 0) {
			return nil, false, nil
		}
		arg, pattern = x, "%"+p+"%"
	default:
		return nil, false, nil
	}

	argFrag, err := t.visit(arg)
	if err != nil {
		return nil, false, err
	}
	patternFrag, err := t.addParameter(queryir.TypeString, pattern)
	if err != nil {
		return nil, false, err
	}
	return &fragment.Like{Arg: argFrag, Pattern: patternFrag}, true, nil
}

// matchStartsWith matches IndexOf(p, x) = 1.
func matchStartsWith(left, right queryir.Node) (string, queryir.Node, bool) {
	if !isIntConstant(right, 1) {
		return "", nil, false
	}
	return matchIndexOf(left)
}

// matchEndsWith matches IndexOf(Reverse(p), Reverse(x)) = 1 and
// Right(x, Length(p)) = p.
func matchEndsWith(left, right queryir.Node) (string, queryir.Node, bool) {
	if isIntConstant(right, 1) {
		call, ok := canonicalCall(left, "IndexOf", 2)
		if !ok {
			return "", nil, false
		}
		revPattern, ok := canonicalCall(call.Args[0], "Reverse", 1)
		if !ok {
			return "", nil, false
		}
		revArg, ok := canonicalCall(call.Args[1], "Reverse", 1)
		if !ok {
			return "", nil, false
		}
		p, ok := likePattern(revPattern.Args[0])
		if !ok {
			return "", nil, false
		}
		return p, revArg.Args[0], true
	}

	call, ok := canonicalCall(left, "Right", 2)
	if !ok {
		return "", nil, false
	}
	length, ok := canonicalCall(call.Args[1], "Length", 1)
	if !ok {
		return "", nil, false
	}
	p, ok := likePattern(length.Args[0])
	if !ok {
		return "", nil, false
	}
	if q, ok := likePattern(right); !ok || q != p {
		return "", nil, false
	}
	return p, call.Args[0], true
}

// matchIndexOf matches IndexOf(p, x) with a literal pattern p.
func matchIndexOf(n queryir.Node) (string, queryir.Node, bool) {
	call, ok := canonicalCall(n, "IndexOf", 2)
	if !ok {
		return "", nil, false
	}
	p, ok := likePattern(call.Args[0])
	if !ok {
		return "", nil, false
	}
	return p, call.Args[1], true
}

func canonicalCall(n queryir.Node, name string, arity int) (*queryir.Call, bool) {
	call, ok := n.(*queryir.Call)
	if !ok || call.Function == nil || len(call.Args) != arity {
		return nil, false
	}
	fn := call.Function
	if !(fn.IsCanonical() || fn.Namespace == "") || fn.Name != name {
		return nil, false
	}
	return call, true
}

// likePattern returns the value of a string constant that is safe to use
// inside a LIKE pattern.
func likePattern(n queryir.Node) (string, bool) {
	c, ok := n.(*queryir.Constant)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(string)
	if !ok || strings.ContainsAny(s, `%_\`) {
		return "", false
	}
	return s, true
}

func isIntConstant(n queryir.Node, want int64) bool {
	c, ok := n.(*queryir.Constant)
	if !ok {
		return false
	}
	switch v := c.Value.(type) {
	case int:
		return int64(v) == want
	case int8:
		return int64(v) == want
	case int16:
		return int64(v) == want
	case int32:
		return int64(v) == want
	case int64:
		return v == want
	case uint8:
		return int64(v) == want
	}
	return false
}
